// Package claim is the code-claim form: a participant enters an enrollment number and a
// secret code found during the hunt, and the scoring service awards points for it.
package claim

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/oddlid/qrhunt/countdown"
	"github.com/oddlid/qrhunt/scoreapi"
)

const (
	MsgRoundEnded   = "ROUND ENDED. Submissions are closed."
	MsgMissingField = "Enter both your enrollment number and the secret code."
	MsgFallback     = "Verification failed. Try again."
	MsgOffline      = "Server is offline. Contact an organizer."
	MsgBusy         = "Verifying..."
	msgSuccess      = "BOOM! Code Claimed."
)

var (
	ErrRoundEnded   = errors.New("round has ended")
	ErrMissingField = errors.New("missing field")
	ErrRejected     = errors.New("claim rejected")
	ErrBusy         = errors.New("claim already in progress")
	ErrNoSubmitter  = errors.New("no claim submitter")
	ErrNoDeadline   = errors.New("no round deadline")
)

type Submitter interface {
	Claim(ctx context.Context, req scoreapi.ClaimRequest) (scoreapi.ClaimResult, error)
}

// Cue is played on a successful claim. It is best effort.
type Cue interface {
	Play() error
}

type Config struct {
	Deadline  time.Time // event wall time, see countdown.ParseDeadline
	Clock     *countdown.Clock
	Submitter Submitter
	Cue       Cue
}

type Form struct {
	mu         sync.Mutex
	deadline   time.Time
	clock      *countdown.Clock
	submitter  Submitter
	cue        Cue
	enrollment string
	code       string
	status     Status
	locked     bool
	busy       bool
	l          zerolog.Logger
}

func New(cfg Config) (*Form, error) {
	if cfg.Submitter == nil {
		return nil, ErrNoSubmitter
	}
	if cfg.Deadline.IsZero() {
		return nil, ErrNoDeadline
	}
	if cfg.Clock == nil {
		cfg.Clock = countdown.NewClock(nil, countdown.EventOffset)
	}
	return &Form{
		deadline:  cfg.Deadline,
		clock:     cfg.Clock,
		submitter: cfg.Submitter,
		cue:       cfg.Cue,
		l:         log.With().Str("package", "claim").Logger(),
	}, nil
}

// SetEnrollment sets the identifier field. It reports false if the form is locked.
func (f *Form) SetEnrollment(value string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.locked {
		return false
	}
	f.enrollment = value
	return true
}

// SetCode sets the secret code field. It reports false if the form is locked.
func (f *Form) SetCode(value string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.locked {
		return false
	}
	f.code = value
	return true
}

func (f *Form) Enrollment() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enrollment
}

func (f *Form) Code() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.code
}

func (f *Form) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Locked reports whether the round has ended and the form no longer accepts claims
func (f *Form) Locked() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locked
}

func (f *Form) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

// Submit sends the current fields as a claim and returns the resulting status. Nothing
// is sent once the round has ended, or when a field is empty.
func (f *Form) Submit(ctx context.Context) Status {
	f.mu.Lock()
	if f.busy {
		f.mu.Unlock()
		return Status{Kind: StatusError, Message: MsgBusy, Err: ErrBusy}
	}
	if f.locked || f.clock.Ended(f.deadline) {
		f.locked = true
		f.status = Status{Kind: StatusError, Message: MsgRoundEnded, Err: ErrRoundEnded}
		f.mu.Unlock()
		return f.status
	}

	req := scoreapi.ClaimRequest{
		EnrollmentNo: strings.TrimSpace(f.enrollment),
		SecretCode:   strings.TrimSpace(f.code),
	}
	if req.EnrollmentNo == "" || req.SecretCode == "" {
		f.status = Status{Kind: StatusError, Message: MsgMissingField, Err: ErrMissingField}
		f.mu.Unlock()
		return f.status
	}

	f.busy = true
	f.status = Status{}
	f.mu.Unlock()

	res, err := f.submitter.Claim(ctx, req)

	f.mu.Lock()
	f.busy = false
	switch {
	case err != nil:
		f.status = Status{Kind: StatusError, Message: MsgOffline, Err: err}
		f.l.Error().
			Err(err).
			Str("enrollment_no", req.EnrollmentNo).
			Msg("Claim failed")
	case res.Success:
		f.code = ""
		f.status = Status{Kind: StatusSuccess, Message: successMessage(res.Score.String()), Score: res.Score.String()}
		f.l.Info().
			Str("enrollment_no", req.EnrollmentNo).
			Str("score", res.Score.String()).
			Msg("Code claimed")
	default:
		msg := strings.TrimSpace(res.Message)
		if msg == "" {
			msg = MsgFallback
		}
		f.status = Status{Kind: StatusError, Message: msg, Err: fmt.Errorf("%w: %s", ErrRejected, msg)}
		f.l.Info().
			Str("enrollment_no", req.EnrollmentNo).
			Str("reason", msg).
			Msg("Claim rejected")
	}
	status := f.status
	f.mu.Unlock()

	if status.Kind == StatusSuccess {
		f.playCue()
	}
	return status
}

func (f *Form) playCue() {
	if f.cue == nil {
		return
	}
	if err := f.cue.Play(); err != nil {
		f.l.Debug().Err(err).Msg("Cue blocked")
	}
}

func successMessage(score string) string {
	if score == "" {
		return msgSuccess
	}
	return fmt.Sprintf("%s Your new score is %s!", msgSuccess, score)
}
