package backupstore

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/proofnote/internal/backup"
	"github.com/xxxsen/proofnote/internal/config"
	"github.com/xxxsen/proofnote/internal/db"
	"github.com/xxxsen/proofnote/internal/model"
	"github.com/xxxsen/proofnote/internal/repo"
)

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, store backup.Store) {
	t.Helper()
	ctx := context.Background()

	has, err := store.HasBackup(ctx, "n1")
	require.NoError(t, err)
	require.False(t, has)
	b, err := store.GetBackup(ctx, "n1")
	require.NoError(t, err)
	require.Nil(t, b)

	require.NoError(t, store.SaveBackup(ctx, &model.Backup{NoteID: "n1", SnapshotText: "first", Timestamp: 100}))
	require.NoError(t, store.SaveBackup(ctx, &model.Backup{NoteID: "n1", SnapshotText: "second", Timestamp: 200}))

	has, err = store.HasBackup(ctx, "n1")
	require.NoError(t, err)
	require.True(t, has)
	b, err = store.GetBackup(ctx, "n1")
	require.NoError(t, err)
	require.Equal(t, "second", b.SnapshotText)

	require.NoError(t, store.DeleteBackup(ctx, "n1"))
	require.NoError(t, store.DeleteBackup(ctx, "n1"))
	has, err = store.HasBackup(ctx, "n1")
	require.NoError(t, err)
	require.False(t, has)
}

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	store, err := New(config.BackupConfig{Type: "local", Data: map[string]interface{}{"dir": dir}}, Deps{})
	require.NoError(t, err)
	exerciseStore(t, store)

	ctx := context.Background()
	require.NoError(t, store.SaveBackup(ctx, &model.Backup{NoteID: "old", SnapshotText: "x", Timestamp: 10}))
	require.NoError(t, store.SaveBackup(ctx, &model.Backup{NoteID: "new", SnapshotText: "y", Timestamp: 1000}))
	n, err := store.DeleteBefore(ctx, 500)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	has, err := store.HasBackup(ctx, "new")
	require.NoError(t, err)
	require.True(t, has)
}

func TestLocalStoreRequiresDir(t *testing.T) {
	_, err := New(config.BackupConfig{Type: "local", Data: map[string]interface{}{}}, Deps{})
	require.Error(t, err)
}

func TestDBStore(t *testing.T) {
	conn, err := db.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, db.ApplyMigrations(conn, "sqlite"))

	store, err := New(config.BackupConfig{Type: "db"}, Deps{Repo: repo.NewBackupRepo(conn, "sqlite")})
	require.NoError(t, err)
	exerciseStore(t, store)

	_, err = New(config.BackupConfig{Type: "db"}, Deps{})
	require.Error(t, err)
}

func TestUnknownStore(t *testing.T) {
	_, err := New(config.BackupConfig{Type: "ftp"}, Deps{})
	require.Error(t, err)
	_, err = New(config.BackupConfig{}, Deps{})
	require.Error(t, err)
}

type fakeObject struct {
	data     []byte
	modified time.Time
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	now     time.Time
}

func newFakeS3(now time.Time) *fakeS3 {
	return &fakeS3{objects: map[string]fakeObject{}, now: now}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = fakeObject{data: data, modified: f.now}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(obj.data))}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &s3.ListObjectsV2Output{}
	prefix := aws.ToString(in.Prefix)
	for key, obj := range f.objects {
		if len(key) < len(prefix) || key[:len(prefix)] != prefix {
			continue
		}
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key), LastModified: aws.Time(obj.modified)})
	}
	return out, nil
}

func TestS3Store(t *testing.T) {
	now := time.Unix(100_000, 0)
	fake := newFakeS3(now)
	store := newS3Store(fake, "bucket", "/backups/")
	exerciseStore(t, store)

	ctx := context.Background()
	require.NoError(t, store.SaveBackup(ctx, &model.Backup{NoteID: "n2", SnapshotText: "z", Timestamp: now.Unix()}))
	_, ok := fake.objects["backups/n2.json"]
	require.True(t, ok)

	n, err := store.DeleteBefore(ctx, now.Unix())
	require.NoError(t, err)
	require.Equal(t, int64(0), n)
	n, err = store.DeleteBefore(ctx, now.Add(time.Second).Unix())
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	require.Error(t, store.SaveBackup(ctx, &model.Backup{NoteID: "a/b"}))
}

func TestS3StoreRequiresCredentials(t *testing.T) {
	_, err := New(config.BackupConfig{Type: "s3", Data: map[string]interface{}{"endpoint": "localhost:9000"}}, Deps{})
	require.Error(t, err)
}

func TestNormalizeEndpoint(t *testing.T) {
	require.Equal(t, "https://s3.example.com", normalizeEndpoint("s3.example.com/", true))
	require.Equal(t, "http://minio:9000", normalizeEndpoint("minio:9000", false))
	require.Equal(t, "http://host", normalizeEndpoint("http://host", true))
}
