package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/proofnote/internal/model"
	appErr "github.com/xxxsen/proofnote/internal/pkg/errors"
)

// Store holds at most one snapshot per note. Saving overwrites.
type Store interface {
	SaveBackup(ctx context.Context, b *model.Backup) error
	HasBackup(ctx context.Context, noteID string) (bool, error)
	// GetBackup returns nil without error when the note has no snapshot.
	GetBackup(ctx context.Context, noteID string) (*model.Backup, error)
	DeleteBackup(ctx context.Context, noteID string) error
	DeleteBefore(ctx context.Context, cutoff int64) (int64, error)
}

// Writer overwrites the live content of a note.
type Writer interface {
	WriteContent(ctx context.Context, noteID, content string) error
}

type WriterFunc func(ctx context.Context, noteID, content string) error

func (f WriterFunc) WriteContent(ctx context.Context, noteID, content string) error {
	return f(ctx, noteID, content)
}

// BackupWriteError reports a snapshot that could not be stored. The apply
// that triggered it still goes through.
type BackupWriteError struct {
	NoteID string
	Err    error
}

func (e *BackupWriteError) Error() string {
	return fmt.Sprintf("changes applied without backup for note %s: %v", e.NoteID, e.Err)
}

func (e *BackupWriteError) Unwrap() error {
	return e.Err
}

type ApplyResult struct {
	BackedUp  bool              `json:"backed_up"`
	Warning   string            `json:"warning,omitempty"`
	BackupErr *BackupWriteError `json:"-"`
}

type Coordinator struct {
	store Store
	now   func() time.Time
}

func NewCoordinator(store Store) *Coordinator {
	return &Coordinator{store: store, now: time.Now}
}

// ApplyCorrection snapshots original and then overwrites the note with
// corrected. A failed snapshot is reported in the result, not as an error.
func (c *Coordinator) ApplyCorrection(ctx context.Context, w Writer, noteID, original, corrected string) (ApplyResult, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("note_id", noteID))
	var result ApplyResult
	err := c.store.SaveBackup(ctx, &model.Backup{
		NoteID:       noteID,
		SnapshotText: original,
		Timestamp:    c.now().Unix(),
	})
	if err != nil {
		bwe := &BackupWriteError{NoteID: noteID, Err: err}
		logger.Warn("backup write failed, applying without backup", zap.Error(err))
		result.BackupErr = bwe
		result.Warning = bwe.Error()
	} else {
		result.BackedUp = true
	}
	if err := w.WriteContent(ctx, noteID, corrected); err != nil {
		return result, fmt.Errorf("write corrected content: %w", err)
	}
	logger.Info("correction applied", zap.Bool("backed_up", result.BackedUp))
	return result, nil
}

func (c *Coordinator) HasBackup(ctx context.Context, noteID string) (bool, error) {
	return c.store.HasBackup(ctx, noteID)
}

func (c *Coordinator) GetBackup(ctx context.Context, noteID string) (*model.Backup, error) {
	return c.store.GetBackup(ctx, noteID)
}

// RestoreBackup writes the snapshot back and consumes it. It never takes a
// new snapshot of the content it replaces.
func (c *Coordinator) RestoreBackup(ctx context.Context, w Writer, noteID string) (string, error) {
	b, err := c.store.GetBackup(ctx, noteID)
	if err != nil {
		return "", fmt.Errorf("load backup: %w", err)
	}
	if b == nil {
		return "", appErr.ErrNoBackup
	}
	if err := w.WriteContent(ctx, noteID, b.SnapshotText); err != nil {
		return "", fmt.Errorf("write restored content: %w", err)
	}
	if err := c.store.DeleteBackup(ctx, noteID); err != nil {
		logutil.GetLogger(ctx).Warn("consume backup failed", zap.String("note_id", noteID), zap.Error(err))
	}
	logutil.GetLogger(ctx).Info("backup restored", zap.String("note_id", noteID))
	return b.SnapshotText, nil
}

// Expire removes snapshots older than maxAge.
func (c *Coordinator) Expire(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := c.now().Add(-maxAge).Unix()
	return c.store.DeleteBefore(ctx, cutoff)
}
