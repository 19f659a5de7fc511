// Package board keeps the live leaderboard: standings synced from the scoring service,
// and a countdown that flips the board from a ranked table to a podium when the round
// deadline passes.
package board

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/oddlid/qrhunt/countdown"
	"github.com/oddlid/qrhunt/scoreapi"
)

const (
	DefaultTickInterval = time.Second
	DefaultMinBusy      = 800 * time.Millisecond
	// PendingText is shown until the first tick
	PendingText = "API SYNC ACTIVE"
	PodiumSize  = 3
)

var (
	ErrBusy       = errors.New("refresh already in progress")
	ErrNoSource   = errors.New("no leaderboard source")
	ErrNoDeadline = errors.New("no round deadline")
)

type Source interface {
	Leaderboard(ctx context.Context) ([]scoreapi.Entry, error)
}

type Config struct {
	Deadline     time.Time // event wall time, see countdown.ParseDeadline
	Clock        *countdown.Clock
	Source       Source
	TickInterval time.Duration
	MinBusy      time.Duration // shortest time a refresh shows as busy
}

type Board struct {
	mu           sync.Mutex
	deadline     time.Time
	clock        *countdown.Clock
	source       Source
	tickInterval time.Duration
	minBusy      time.Duration
	entries      []scoreapi.Entry
	countdown    string
	lastSync     time.Time
	err          error
	synced       bool
	busy         bool
	ended        bool
	overlayArmed bool
	dismissed    bool
	subs         map[int]chan struct{}
	nextSub      int
	l            zerolog.Logger
}

func New(cfg Config) (*Board, error) {
	if cfg.Source == nil {
		return nil, ErrNoSource
	}
	if cfg.Deadline.IsZero() {
		return nil, ErrNoDeadline
	}
	if cfg.Clock == nil {
		cfg.Clock = countdown.NewClock(nil, countdown.EventOffset)
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.MinBusy <= 0 {
		cfg.MinBusy = DefaultMinBusy
	}
	return &Board{
		deadline:     cfg.Deadline,
		clock:        cfg.Clock,
		source:       cfg.Source,
		tickInterval: cfg.TickInterval,
		minBusy:      cfg.MinBusy,
		countdown:    PendingText,
		subs:         make(map[int]chan struct{}),
		l: log.With().
			Str("package", "board").
			Time("deadline", cfg.Deadline).
			Logger(),
	}, nil
}

// Run mounts the board: it syncs the standings once and ticks the countdown until the
// round ends. It returns when both are done, or when ctx is cancelled.
func (b *Board) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := b.Refresh(gctx); err != nil && !errors.Is(err, ErrBusy) {
			b.l.Warn().Err(err).Msg("Initial sync failed")
		}
		return nil
	})
	g.Go(func() error {
		b.tickLoop(gctx)
		return nil
	})
	return g.Wait()
}

func (b *Board) tickLoop(ctx context.Context) {
	ticker := b.clock.Base().NewTicker(b.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if b.tick() {
				b.l.Info().Msg("Round ended")
				return
			}
		}
	}
}

// tick updates the countdown and reports whether the round has ended
func (b *Board) tick() bool {
	r := b.clock.Remaining(b.deadline)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ended {
		return true
	}
	if r.Ended {
		b.ended = true
		b.overlayArmed = true
		b.countdown = countdown.EndedText
	} else {
		b.countdown = r.String()
	}
	b.notify()
	return b.ended
}

// Refresh replaces the standings with a fresh copy from the source. On failure the
// previous standings are kept and the error is shown instead. The board stays busy for
// at least the configured floor, even when the source answers faster.
func (b *Board) Refresh(ctx context.Context) error {
	b.mu.Lock()
	if b.busy {
		b.mu.Unlock()
		return ErrBusy
	}
	b.busy = true
	b.err = nil
	b.notify()
	b.mu.Unlock()

	base := b.clock.Base()
	start := base.Now()
	entries, err := b.source.Leaderboard(ctx)

	b.mu.Lock()
	if err != nil {
		b.err = err
		b.l.Error().Err(err).Msg("Sync failed")
	} else {
		b.entries = entries
		b.synced = true
		b.lastSync = b.clock.Now()
		b.l.Debug().Int("entries", len(entries)).Msg("Synced")
	}
	b.notify()
	b.mu.Unlock()

	if wait := b.minBusy - base.Since(start); wait > 0 {
		select {
		case <-base.After(wait):
		case <-ctx.Done():
		}
	}

	b.mu.Lock()
	b.busy = false
	b.notify()
	b.mu.Unlock()

	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	return nil
}

// Dismiss hides the winner overlay for good. It reports whether the overlay was showing.
func (b *Board) Dismiss() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.overlayVisible() {
		return false
	}
	b.dismissed = true
	b.notify()
	return true
}

func (b *Board) overlayVisible() bool {
	return b.overlayArmed && !b.dismissed && len(b.entries) > 0
}

func (b *Board) Deadline() time.Time {
	return b.deadline
}

func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Snapshot{
		Entries:   slices.Clone(b.entries),
		Countdown: b.countdown,
		LastSync:  b.lastSync,
		Err:       b.err,
		Synced:    b.synced,
		Busy:      b.busy,
		Ended:     b.ended,
		Overlay:   b.overlayVisible(),
	}
}

// Subscribe returns a channel that receives a value whenever the board changes, and a
// func to stop receiving. Notifications are coalesced; read Snapshot for the state.
func (b *Board) Subscribe() (<-chan struct{}, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextSub
	b.nextSub++
	ch := make(chan struct{}, 1)
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// notify must be called with b.mu held
func (b *Board) notify() {
	for _, ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
