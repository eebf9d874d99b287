package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/proofnote/internal/model"
	"github.com/xxxsen/proofnote/internal/pkg/dbutil"
	appErr "github.com/xxxsen/proofnote/internal/pkg/errors"
)

const upsertBackupSQL = "INSERT INTO note_backups (note_id, content, ctime) VALUES (?, ?, ?) " +
	"ON CONFLICT (note_id) DO UPDATE SET content = excluded.content, ctime = excluded.ctime"

// BackupRepo keeps at most one snapshot per note.
type BackupRepo struct {
	db   *sql.DB
	bind int
}

func NewBackupRepo(db *sql.DB, driver string) *BackupRepo {
	return &BackupRepo{db: db, bind: dbutil.BindType(driver)}
}

func (r *BackupRepo) Upsert(ctx context.Context, b *model.Backup) error {
	sqlStr, args := dbutil.Finalize(r.bind, upsertBackupSQL, []interface{}{b.NoteID, b.SnapshotText, b.Timestamp})
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *BackupRepo) Get(ctx context.Context, noteID string) (*model.Backup, error) {
	where := map[string]interface{}{
		"note_id": noteID,
	}
	sqlStr, args, err := builder.BuildSelect("note_backups", where, []string{"note_id", "content", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(r.bind, sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, appErr.ErrNotFound
	}
	var b model.Backup
	if err := rows.Scan(&b.NoteID, &b.SnapshotText, &b.Timestamp); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BackupRepo) Exists(ctx context.Context, noteID string) (bool, error) {
	sqlStr, args := dbutil.Finalize(r.bind, "SELECT COUNT(*) FROM note_backups WHERE note_id=?", []interface{}{noteID})
	var count int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *BackupRepo) Delete(ctx context.Context, noteID string) error {
	where := map[string]interface{}{
		"note_id": noteID,
	}
	sqlStr, args, err := builder.BuildDelete("note_backups", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(r.bind, sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// DeleteBefore removes snapshots taken before cutoff (unix seconds).
func (r *BackupRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	where := map[string]interface{}{
		"ctime <": cutoff,
	}
	sqlStr, args, err := builder.BuildDelete("note_backups", where)
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(r.bind, sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
