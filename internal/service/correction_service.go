package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/proofnote/internal/backup"
	"github.com/xxxsen/proofnote/internal/correction"
	"github.com/xxxsen/proofnote/internal/model"
	appErr "github.com/xxxsen/proofnote/internal/pkg/errors"
	"github.com/xxxsen/proofnote/internal/session"
)

type DocumentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	GetByID(ctx context.Context, userID, docID string) (*model.Document, error)
	UpdateContent(ctx context.Context, userID, docID, content string, mtime int64) error
}

type Runner interface {
	Run(ctx context.Context, content string, hooks correction.Hooks) (*correction.Review, error)
}

type CorrectionService struct {
	docs     DocumentStore
	pipeline Runner
	backups  *backup.Coordinator
	sessions *session.Registry
	now      func() time.Time
}

func NewCorrectionService(docs DocumentStore, pipeline Runner, backups *backup.Coordinator, sessions *session.Registry) *CorrectionService {
	return &CorrectionService{
		docs:     docs,
		pipeline: pipeline,
		backups:  backups,
		sessions: sessions,
		now:      time.Now,
	}
}

// CreateNote stores a new note so it can be reviewed.
func (s *CorrectionService) CreateNote(ctx context.Context, userID, title, content string) (*model.Document, error) {
	if strings.TrimSpace(content) == "" {
		return nil, appErr.ErrInvalid
	}
	now := s.now().Unix()
	doc := &model.Document{
		ID:      newID(),
		UserID:  userID,
		Title:   strings.TrimSpace(title),
		Content: content,
		Ctime:   now,
		Mtime:   now,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *CorrectionService) GetNote(ctx context.Context, userID, noteID string) (*model.Document, error) {
	return s.docs.GetByID(ctx, userID, noteID)
}

// Analyze reviews content, or the note's live text when content is empty.
// Only one analysis per note may run at a time.
func (s *CorrectionService) Analyze(ctx context.Context, userID, noteID, content string) (*correction.Review, error) {
	doc, err := s.docs.GetByID(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	if content == "" {
		content = doc.Content
	}
	run, err := s.sessions.Begin(noteID)
	if err != nil {
		return nil, err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("note_id", noteID), zap.String("user_id", userID))
	logger.Info("analyze started")
	review, err := s.pipeline.Run(ctx, content, correction.Hooks{
		Progress:    run.Progress,
		Canceled:    run.Canceled,
		OnReconcile: run.Reconciling,
	})
	run.Finish(err)
	if err != nil {
		logger.Warn("analyze failed", zap.Error(err))
		return nil, err
	}
	return review, nil
}

func (s *CorrectionService) Status(ctx context.Context, userID, noteID string) (session.Snapshot, error) {
	if _, err := s.docs.GetByID(ctx, userID, noteID); err != nil {
		return session.Snapshot{}, err
	}
	return s.sessions.Status(noteID), nil
}

func (s *CorrectionService) Cancel(ctx context.Context, userID, noteID string) (bool, error) {
	if _, err := s.docs.GetByID(ctx, userID, noteID); err != nil {
		return false, err
	}
	return s.sessions.Cancel(noteID), nil
}

// Apply snapshots the live note and replaces it with corrected. When the
// caller passes the text it analyzed, it must still match the live note.
func (s *CorrectionService) Apply(ctx context.Context, userID, noteID, original, corrected string) (backup.ApplyResult, error) {
	if strings.TrimSpace(corrected) == "" {
		return backup.ApplyResult{}, fmt.Errorf("corrected text is empty: %w", appErr.ErrInvalid)
	}
	doc, err := s.docs.GetByID(ctx, userID, noteID)
	if err != nil {
		return backup.ApplyResult{}, err
	}
	if s.sessions.Status(noteID).State.Active() {
		return backup.ApplyResult{}, appErr.ErrInProgress
	}
	if original != "" && original != doc.Content {
		return backup.ApplyResult{}, fmt.Errorf("note changed since analysis: %w", appErr.ErrConflict)
	}
	return s.backups.ApplyCorrection(ctx, s.writer(userID), noteID, doc.Content, corrected)
}

// Backup returns the note's snapshot, or nil when there is none.
func (s *CorrectionService) Backup(ctx context.Context, userID, noteID string) (*model.Backup, error) {
	if _, err := s.docs.GetByID(ctx, userID, noteID); err != nil {
		return nil, err
	}
	return s.backups.GetBackup(ctx, noteID)
}

func (s *CorrectionService) Restore(ctx context.Context, userID, noteID string) (string, error) {
	if _, err := s.docs.GetByID(ctx, userID, noteID); err != nil {
		return "", err
	}
	if s.sessions.Status(noteID).State.Active() {
		return "", appErr.ErrInProgress
	}
	return s.backups.RestoreBackup(ctx, s.writer(userID), noteID)
}

func (s *CorrectionService) writer(userID string) backup.Writer {
	return backup.WriterFunc(func(ctx context.Context, noteID, content string) error {
		return s.docs.UpdateContent(ctx, userID, noteID, content, s.now().Unix())
	})
}

func newID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
