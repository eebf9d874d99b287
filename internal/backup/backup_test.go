package backup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/proofnote/internal/model"
	appErr "github.com/xxxsen/proofnote/internal/pkg/errors"
)

type memStore struct {
	mu      sync.Mutex
	items   map[string]model.Backup
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{items: map[string]model.Backup{}}
}

func (s *memStore) SaveBackup(_ context.Context, b *model.Backup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.items[b.NoteID] = *b
	return nil
}

func (s *memStore) HasBackup(_ context.Context, noteID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[noteID]
	return ok, nil
}

func (s *memStore) GetBackup(_ context.Context, noteID string) (*model.Backup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.items[noteID]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (s *memStore) DeleteBackup(_ context.Context, noteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, noteID)
	return nil
}

func (s *memStore) DeleteBefore(_ context.Context, cutoff int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, v := range s.items {
		if v.Timestamp < cutoff {
			delete(s.items, k)
			n++
		}
	}
	return n, nil
}

type memDoc struct {
	content  map[string]string
	writeErr error
}

func (d *memDoc) WriteContent(_ context.Context, noteID, content string) error {
	if d.writeErr != nil {
		return d.writeErr
	}
	d.content[noteID] = content
	return nil
}

func TestApplyThenRestore(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	doc := &memDoc{content: map[string]string{"n1": "I saw teh cat"}}
	c := NewCoordinator(store)

	res, err := c.ApplyCorrection(ctx, doc, "n1", "I saw teh cat", "I saw the cat")
	require.NoError(t, err)
	require.True(t, res.BackedUp)
	require.Empty(t, res.Warning)
	require.Equal(t, "I saw the cat", doc.content["n1"])

	has, err := c.HasBackup(ctx, "n1")
	require.NoError(t, err)
	require.True(t, has)
	b, err := c.GetBackup(ctx, "n1")
	require.NoError(t, err)
	require.Equal(t, "I saw teh cat", b.SnapshotText)

	restored, err := c.RestoreBackup(ctx, doc, "n1")
	require.NoError(t, err)
	require.Equal(t, "I saw teh cat", restored)
	require.Equal(t, "I saw teh cat", doc.content["n1"])

	has, err = c.HasBackup(ctx, "n1")
	require.NoError(t, err)
	require.False(t, has)

	_, err = c.RestoreBackup(ctx, doc, "n1")
	require.ErrorIs(t, err, appErr.ErrNoBackup)
}

func TestApplyOverwritesSlot(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	doc := &memDoc{content: map[string]string{}}
	c := NewCoordinator(store)

	_, err := c.ApplyCorrection(ctx, doc, "n1", "v1", "v2")
	require.NoError(t, err)
	_, err = c.ApplyCorrection(ctx, doc, "n1", "v2", "v3")
	require.NoError(t, err)
	b, err := c.GetBackup(ctx, "n1")
	require.NoError(t, err)
	require.Equal(t, "v2", b.SnapshotText)
	require.Len(t, store.items, 1)
}

func TestApplyWithoutBackup(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.saveErr = errors.New("disk full")
	doc := &memDoc{content: map[string]string{}}
	c := NewCoordinator(store)

	res, err := c.ApplyCorrection(ctx, doc, "n1", "old", "new")
	require.NoError(t, err)
	require.False(t, res.BackedUp)
	require.Contains(t, res.Warning, "without backup")
	require.NotNil(t, res.BackupErr)
	require.ErrorIs(t, res.BackupErr, store.saveErr)
	require.Equal(t, "new", doc.content["n1"])
}

func TestApplyWriteFailureKeepsDocument(t *testing.T) {
	ctx := context.Background()
	doc := &memDoc{content: map[string]string{"n1": "old"}, writeErr: errors.New("db down")}
	c := NewCoordinator(newMemStore())

	_, err := c.ApplyCorrection(ctx, doc, "n1", "old", "new")
	require.Error(t, err)
	require.Equal(t, "old", doc.content["n1"])
}

func TestExpire(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	now := time.Unix(10_000, 0)
	c := NewCoordinator(store)
	c.now = func() time.Time { return now }

	store.items["old"] = model.Backup{NoteID: "old", Timestamp: now.Add(-48 * time.Hour).Unix()}
	store.items["new"] = model.Backup{NoteID: "new", Timestamp: now.Add(-time.Hour).Unix()}
	n, err := c.Expire(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	_, ok := store.items["new"]
	require.True(t, ok)
}

func TestWriterFunc(t *testing.T) {
	var got string
	w := WriterFunc(func(_ context.Context, _ string, content string) error {
		got = content
		return nil
	})
	require.NoError(t, w.WriteContent(context.Background(), "n", "x"))
	require.Equal(t, "x", got)
}
