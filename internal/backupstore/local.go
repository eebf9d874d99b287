package backupstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xxxsen/proofnote/internal/backup"
	"github.com/xxxsen/proofnote/internal/model"
)

type localConfig struct {
	Dir string `json:"dir"`
}

type localStore struct {
	dir string
}

func init() {
	Register("local", createLocalStore)
}

func createLocalStore(_ Deps, args interface{}) (backup.Store, error) {
	config := &localConfig{}
	if err := decodeConfig(args, config); err != nil {
		return nil, err
	}
	if config.Dir == "" {
		return nil, fmt.Errorf("local store dir is required")
	}
	return NewLocalStore(config.Dir), nil
}

// NewLocalStore keeps one json file per note under dir.
func NewLocalStore(dir string) backup.Store {
	return &localStore{dir: dir}
}

func (s *localStore) path(noteID string) string {
	sum := sha256.Sum256([]byte(noteID))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+".json")
}

func (s *localStore) SaveBackup(_ context.Context, b *model.Backup) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	target := s.path(b.NoteID)
	tmp, err := os.CreateTemp(s.dir, ".backup-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), target)
}

func (s *localStore) HasBackup(_ context.Context, noteID string) (bool, error) {
	_, err := os.Stat(s.path(noteID))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (s *localStore) GetBackup(_ context.Context, noteID string) (*model.Backup, error) {
	return readBackupFile(s.path(noteID))
}

func (s *localStore) DeleteBackup(_ context.Context, noteID string) error {
	err := os.Remove(s.path(noteID))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *localStore) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var removed int64
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		file := filepath.Join(s.dir, entry.Name())
		b, err := readBackupFile(file)
		if err != nil || b == nil || b.Timestamp >= cutoff {
			continue
		}
		if err := os.Remove(file); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func readBackupFile(file string) (*model.Backup, error) {
	data, err := os.ReadFile(file)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var b model.Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode backup %s: %w", filepath.Base(file), err)
	}
	return &b, nil
}
