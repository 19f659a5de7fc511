package claim

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oddlid/qrhunt/countdown"
	"github.com/oddlid/qrhunt/scoreapi"
)

var testStart = time.Date(2026, time.February, 18, 12, 0, 0, 0, time.UTC)

type stubSubmitter struct {
	mu      sync.Mutex
	res     scoreapi.ClaimResult
	err     error
	reqs    []scoreapi.ClaimRequest
	gate    chan struct{}
	entered chan struct{}
}

func (s *stubSubmitter) Claim(ctx context.Context, req scoreapi.ClaimRequest) (scoreapi.ClaimResult, error) {
	s.mu.Lock()
	s.reqs = append(s.reqs, req)
	gate, entered, res, err := s.gate, s.entered, s.res, s.err
	s.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return scoreapi.ClaimResult{}, ctx.Err()
		}
	}
	return res, err
}

func (s *stubSubmitter) requests() []scoreapi.ClaimRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]scoreapi.ClaimRequest(nil), s.reqs...)
}

type stubCue struct {
	mu    sync.Mutex
	plays int
	err   error
}

func (c *stubCue) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plays++
	return c.err
}

func (c *stubCue) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.plays
}

type advancer interface {
	Advance(d time.Duration)
}

func newTestForm(t *testing.T, sub Submitter, cue Cue, distance time.Duration) (*Form, advancer) {
	t.Helper()
	fc := clockwork.NewFakeClockAt(testStart)
	clock := countdown.NewClock(fc, countdown.EventOffset)
	f, err := New(Config{
		Deadline:  clock.Now().Add(distance),
		Clock:     clock,
		Submitter: sub,
		Cue:       cue,
	})
	require.NoError(t, err)
	return f, fc
}

func Test_New(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Deadline: testStart})
	assert.ErrorIs(t, err, ErrNoSubmitter)

	_, err = New(Config{Submitter: &stubSubmitter{}})
	assert.ErrorIs(t, err, ErrNoDeadline)

	f, err := New(Config{Submitter: &stubSubmitter{}, Deadline: testStart})
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, f.Status().Kind)
	assert.False(t, f.Locked())
	assert.False(t, f.Busy())
}

func Test_Form_Submit_success(t *testing.T) {
	t.Parallel()

	sub := &stubSubmitter{res: scoreapi.ClaimResult{Success: true, Score: json.Number("42")}}
	cue := &stubCue{}
	f, _ := newTestForm(t, sub, cue, time.Hour)

	f.SetEnrollment("  E1  ")
	f.SetCode(" ABC\t")
	status := f.Submit(context.Background())

	assert.True(t, status.OK())
	assert.Equal(t, "BOOM! Code Claimed. Your new score is 42!", status.Message)
	assert.Equal(t, "42", status.Score)
	assert.NoError(t, status.Err)
	assert.Equal(t, []scoreapi.ClaimRequest{{EnrollmentNo: "E1", SecretCode: "ABC"}}, sub.requests())
	assert.Empty(t, f.Code())
	assert.Equal(t, "  E1  ", f.Enrollment())
	assert.Equal(t, 1, cue.count())
	assert.Equal(t, status, f.Status())
}

func Test_Form_Submit_successWithoutScore(t *testing.T) {
	t.Parallel()

	f, _ := newTestForm(t, &stubSubmitter{res: scoreapi.ClaimResult{Success: true}}, nil, time.Hour)
	f.SetEnrollment("E1")
	f.SetCode("ABC")

	status := f.Submit(context.Background())
	assert.True(t, status.OK())
	assert.Equal(t, "BOOM! Code Claimed.", status.Message)
}

func Test_Form_Submit_cueFailure(t *testing.T) {
	t.Parallel()

	cue := &stubCue{err: errors.New("autoplay blocked")}
	f, _ := newTestForm(t, &stubSubmitter{res: scoreapi.ClaimResult{Success: true, Score: "7"}}, cue, time.Hour)
	f.SetEnrollment("E1")
	f.SetCode("ABC")

	status := f.Submit(context.Background())
	assert.True(t, status.OK())
	assert.Equal(t, 1, cue.count())
}

func Test_Form_Submit_rejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		message string
		want    string
	}{
		{name: "server message", message: "Code already claimed", want: "Code already claimed"},
		{name: "blank message", message: "   ", want: MsgFallback},
		{name: "no message", want: MsgFallback},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cue := &stubCue{}
			f, _ := newTestForm(t, &stubSubmitter{res: scoreapi.ClaimResult{Message: tc.message}}, cue, time.Hour)
			f.SetEnrollment("E1")
			f.SetCode("ABC")

			status := f.Submit(context.Background())
			assert.Equal(t, StatusError, status.Kind)
			assert.Equal(t, tc.want, status.Message)
			assert.ErrorIs(t, status.Err, ErrRejected)
			assert.Equal(t, "ABC", f.Code())
			assert.False(t, f.Locked())
			assert.Zero(t, cue.count())
		})
	}
}

func Test_Form_Submit_offline(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{name: "network", err: scoreapi.ErrNetworkUnavailable},
		{name: "malformed", err: scoreapi.ErrMalformedPayload},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f, _ := newTestForm(t, &stubSubmitter{err: tc.err}, nil, time.Hour)
			f.SetEnrollment("E1")
			f.SetCode("ABC")

			status := f.Submit(context.Background())
			assert.Equal(t, StatusError, status.Kind)
			assert.Equal(t, MsgOffline, status.Message)
			assert.ErrorIs(t, status.Err, tc.err)
			assert.False(t, f.Locked())
			assert.True(t, f.SetCode("XYZ"))
		})
	}
}

func Test_Form_Submit_missingField(t *testing.T) {
	t.Parallel()

	sub := &stubSubmitter{}
	f, _ := newTestForm(t, sub, nil, time.Hour)
	f.SetEnrollment("E1")
	f.SetCode("   ")

	status := f.Submit(context.Background())
	assert.Equal(t, MsgMissingField, status.Message)
	assert.ErrorIs(t, status.Err, ErrMissingField)
	assert.Empty(t, sub.requests())
}

func Test_Form_Submit_roundEnded(t *testing.T) {
	t.Parallel()

	sub := &stubSubmitter{res: scoreapi.ClaimResult{Success: true}}
	f, fc := newTestForm(t, sub, nil, time.Minute)
	f.SetEnrollment("E1")
	f.SetCode("ABC")

	fc.Advance(time.Minute)
	status := f.Submit(context.Background())

	assert.Equal(t, StatusError, status.Kind)
	assert.Equal(t, MsgRoundEnded, status.Message)
	assert.ErrorIs(t, status.Err, ErrRoundEnded)
	assert.True(t, f.Locked())
	assert.Empty(t, sub.requests())

	assert.False(t, f.SetCode("XYZ"))
	assert.False(t, f.SetEnrollment("E2"))
	assert.Equal(t, "ABC", f.Code())

	status = f.Submit(context.Background())
	assert.ErrorIs(t, status.Err, ErrRoundEnded)
	assert.Empty(t, sub.requests())
}

func Test_Form_Submit_busy(t *testing.T) {
	t.Parallel()

	sub := &stubSubmitter{
		res:     scoreapi.ClaimResult{Success: true, Score: "1"},
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	f, _ := newTestForm(t, sub, nil, time.Hour)
	f.SetEnrollment("E1")
	f.SetCode("ABC")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan Status, 1)
	go func() {
		done <- f.Submit(ctx)
	}()

	select {
	case <-sub.entered:
	case <-ctx.Done():
		t.Fatal("submit never reached the submitter")
	}
	assert.True(t, f.Busy())
	assert.Equal(t, StatusIdle, f.Status().Kind)

	status := f.Submit(ctx)
	assert.ErrorIs(t, status.Err, ErrBusy)

	close(sub.gate)
	select {
	case status = <-done:
	case <-ctx.Done():
		t.Fatal("submit did not return")
	}
	assert.True(t, status.OK())
	assert.False(t, f.Busy())
	assert.Len(t, sub.requests(), 1)
}

func Test_StatusKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "idle", StatusIdle.String())
	assert.Equal(t, "success", StatusSuccess.String())
	assert.Equal(t, "error", StatusError.String())
}
