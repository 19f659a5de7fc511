package ircbot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/oddlid/qrhunt/util"
)

// Announce posts the podium to all channels once the round is over and standings are
// in, and, when countdownSpec is set, the time remaining on that cron schedule until
// the round ends. It blocks until ctx is done.
func (b *Bot) Announce(ctx context.Context, countdownSpec string) error {
	if countdownSpec != "" {
		c := cron.New(cron.WithLogger(util.CronLogger(b.l)))
		if _, err := c.AddFunc(countdownSpec, b.postCountdown); err != nil {
			return fmt.Errorf("invalid countdown schedule %q: %w", countdownSpec, err)
		}
		c.Start()
		defer func() {
			<-c.Stop().Done()
		}()
		b.l.Info().Str("schedule", countdownSpec).Msg("Countdown announcements enabled")
	}

	if b.board == nil {
		<-ctx.Done()
		return nil
	}

	changed, unsubscribe := b.board.Subscribe()
	defer unsubscribe()

	for {
		var retry <-chan time.Time
		if err := b.announceResults(); err != nil {
			b.l.Error().Err(err).Msg("Failed to announce results")
			retry = b.clock.Base().After(b.retryInterval)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
		case <-retry:
		}
	}
}

// announceResults posts the podium to every channel that has not had it yet, once the
// board shows a finished round with standings. A non-nil error means some channel is
// still missing the announcement.
func (b *Bot) announceResults() error {
	s := b.board.Snapshot()
	if !s.Ended || len(s.Entries) == 0 {
		return nil
	}

	b.mu.Lock()
	pending := make([]string, 0, len(b.channels))
	for _, channel := range b.channels {
		if !b.announcedTo[channel] {
			pending = append(pending, channel)
		}
	}
	b.mu.Unlock()
	if len(pending) == 0 {
		return nil
	}

	msg := formatPodium(s)
	var errs []error
	for _, channel := range pending {
		if err := b.sendMessage(channel, msg); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", channel, err))
			continue
		}
		b.mu.Lock()
		b.announcedTo[channel] = true
		b.mu.Unlock()
		b.l.Info().
			Str("channel", channel).
			Int("entries", len(s.Entries)).
			Msg("Results announced")
	}
	return errors.Join(errs...)
}

func (b *Bot) postCountdown() {
	if b.clock.Ended(b.deadline) {
		return
	}
	if err := b.broadcast("Time remaining: " + b.clock.Format(b.deadline)); err != nil {
		b.l.Error().Err(err).Msg("Failed to post countdown")
	}
}
