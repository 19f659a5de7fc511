package board

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/oddlid/qrhunt/util"
)

// ScheduleRefresh refreshes the board on a cron spec until ctx is done. This is an
// operator opt-in on top of the single sync at mount.
func ScheduleRefresh(ctx context.Context, b *Board, spec string) error {
	c := cron.New(cron.WithLogger(util.CronLogger(b.l)))
	_, err := c.AddFunc(spec, func() {
		if err := b.Refresh(ctx); err != nil && !errors.Is(err, ErrBusy) {
			b.l.Debug().Err(err).Msg("Scheduled refresh failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}

	c.Start()
	b.l.Info().Str("schedule", spec).Msg("Scheduled refresh enabled")

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return nil
}
