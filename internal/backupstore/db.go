package backupstore

import (
	"context"
	"fmt"

	"github.com/xxxsen/proofnote/internal/backup"
	"github.com/xxxsen/proofnote/internal/model"
	appErr "github.com/xxxsen/proofnote/internal/pkg/errors"
	"github.com/xxxsen/proofnote/internal/repo"
)

type dbStore struct {
	repo *repo.BackupRepo
}

func init() {
	Register("db", createDBStore)
}

func createDBStore(deps Deps, _ interface{}) (backup.Store, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("db backup store requires a database")
	}
	return NewDBStore(deps.Repo), nil
}

func NewDBStore(r *repo.BackupRepo) backup.Store {
	return &dbStore{repo: r}
}

func (s *dbStore) SaveBackup(ctx context.Context, b *model.Backup) error {
	return s.repo.Upsert(ctx, b)
}

func (s *dbStore) HasBackup(ctx context.Context, noteID string) (bool, error) {
	return s.repo.Exists(ctx, noteID)
}

func (s *dbStore) GetBackup(ctx context.Context, noteID string) (*model.Backup, error) {
	b, err := s.repo.Get(ctx, noteID)
	if appErr.IsNotFound(err) {
		return nil, nil
	}
	return b, err
}

func (s *dbStore) DeleteBackup(ctx context.Context, noteID string) error {
	return s.repo.Delete(ctx, noteID)
}

func (s *dbStore) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	return s.repo.DeleteBefore(ctx, cutoff)
}
