package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type BackupExpirer interface {
	Expire(ctx context.Context, maxAge time.Duration) (int64, error)
}

// BackupRetentionJob drops pre-apply snapshots older than maxAge. A zero
// maxAge keeps snapshots forever.
type BackupRetentionJob struct {
	backups BackupExpirer
	maxAge  time.Duration
}

func NewBackupRetentionJob(backups BackupExpirer, maxAge time.Duration) *BackupRetentionJob {
	return &BackupRetentionJob{backups: backups, maxAge: maxAge}
}

func (j *BackupRetentionJob) Name() string {
	return "backup_retention"
}

func (j *BackupRetentionJob) Run(ctx context.Context) error {
	if j.backups == nil || j.maxAge <= 0 {
		return nil
	}
	removed, err := j.backups.Expire(ctx, j.maxAge)
	if err != nil {
		return err
	}
	if removed > 0 {
		logutil.GetLogger(ctx).Info("expired backups removed", zap.Int64("count", removed))
	}
	return nil
}
