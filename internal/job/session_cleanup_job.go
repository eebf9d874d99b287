package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type SessionPruner interface {
	Prune(maxAge time.Duration) int
}

type SessionCleanupJob struct {
	sessions SessionPruner
	maxAge   time.Duration
}

func NewSessionCleanupJob(sessions SessionPruner, maxAge time.Duration) *SessionCleanupJob {
	return &SessionCleanupJob{sessions: sessions, maxAge: maxAge}
}

func (j *SessionCleanupJob) Name() string {
	return "session_cleanup"
}

func (j *SessionCleanupJob) Run(ctx context.Context) error {
	if j.sessions == nil {
		return nil
	}
	maxAge := j.maxAge
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	if removed := j.sessions.Prune(maxAge); removed > 0 {
		logutil.GetLogger(ctx).Debug("finished sessions pruned", zap.Int("count", removed))
	}
	return nil
}
