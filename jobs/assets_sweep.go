package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/taller-erp/taller-erp/internal/notify"
)

// SweepAssetsJob deletes staged media files past their TTL. Staged files are
// only needed for the duration of a WhatsApp send, so cleanup is best-effort
// and runs on a cron schedule.
type SweepAssetsJob struct {
	Store  *notify.LocalStore
	TTL    time.Duration
	Logger *slog.Logger
}

// Handle executes the sweep.
func (j *SweepAssetsJob) Handle(_ context.Context, _ *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("assets sweep: handler not configured")
	}
	ttl := j.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	removed, err := j.Store.Sweep(ttl)
	if err != nil {
		j.logger().Error("asset sweep", slog.Any("error", err))
		return err
	}
	if removed > 0 {
		j.logger().Info("asset sweep", slog.Int("removed", removed))
	}
	return nil
}

func (j *SweepAssetsJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeSweepAssets))
	}
	return slog.Default().With(slog.String("job", TaskTypeSweepAssets))
}
