package board

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oddlid/qrhunt/countdown"
	"github.com/oddlid/qrhunt/scoreapi"
)

func render(t *testing.T, s Snapshot) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, s))
	return buf.String()
}

func Test_Render_loading(t *testing.T) {
	t.Parallel()

	out := render(t, Snapshot{Countdown: PendingText, Busy: true})
	assert.Contains(t, out, "QR HUNT LIVE")
	assert.Contains(t, out, "Time Remaining: "+PendingText)
	assert.Contains(t, out, "SYNCING...")
	assert.Contains(t, out, "API HANDSHAKE...")
	assert.NotContains(t, out, "Last synced")
}

func Test_Render_error(t *testing.T) {
	t.Parallel()

	out := render(t, Snapshot{
		Countdown: "05m 00s",
		Err:       &scoreapi.StatusError{Code: 500},
	})
	assert.Contains(t, out, "ERROR: API Offline (500)")
	assert.Contains(t, out, "RETRY")
}

func Test_Render_table(t *testing.T) {
	t.Parallel()

	out := render(t, Snapshot{
		Entries:   testEntries[:2],
		Countdown: "1h 02m 03s",
		Synced:    true,
		LastSync:  time.Date(2026, time.February, 18, 20, 15, 7, 0, time.UTC),
	})
	assert.Contains(t, out, "Time Remaining: 1h 02m 03s")
	assert.Contains(t, out, "#  NAME POINTS")

	a1 := strings.Index(out, "1  A1")
	b2 := strings.Index(out, "2  B2")
	require.NotEqual(t, -1, a1)
	require.NotEqual(t, -1, b2)
	assert.Less(t, a1, b2, "rows keep received order")
	assert.Contains(t, out, "Last synced: 20:15:07")
}

func Test_Render_tableEmpty(t *testing.T) {
	t.Parallel()

	out := render(t, Snapshot{Countdown: "00m 05s", Synced: true})
	assert.Contains(t, out, "No scores yet")
}

func Test_Render_winner(t *testing.T) {
	t.Parallel()

	out := render(t, Snapshot{
		Entries:   testEntries,
		Countdown: countdown.EndedText,
		Synced:    true,
		Ended:     true,
		Overlay:   true,
	})
	assert.Contains(t, out, "Final Standings: ROUND ENDED")
	assert.Contains(t, out, "WINNER")
	assert.Contains(t, out, "  A1\n")
	assert.Contains(t, out, "10 POINTS")
	assert.NotContains(t, out, "3rd")
}

func Test_Render_winnerAfterFailedSync(t *testing.T) {
	t.Parallel()

	src := &stubSource{entries: testEntries}
	b, fc := newTestBoard(t, src, time.Second)
	require.NoError(t, refresh(t, b, fc))

	fc.Advance(time.Second)
	require.True(t, b.tick())

	src.set(nil, errOffline)
	require.Error(t, refresh(t, b, fc))

	s := b.Snapshot()
	require.Error(t, s.Err)
	assert.True(t, s.Overlay)
	assert.Equal(t, PhaseRoundOver, s.Phase())

	out := render(t, s)
	assert.Contains(t, out, "WINNER")
	assert.Contains(t, out, "  A1\n")
	assert.NotContains(t, out, "ERROR")

	require.True(t, b.Dismiss())
	assert.Equal(t, PhaseError, b.Snapshot().Phase())
}

func Test_Render_podium(t *testing.T) {
	t.Parallel()

	out := render(t, Snapshot{
		Entries:   testEntries,
		Countdown: countdown.EndedText,
		Synced:    true,
		Ended:     true,
	})
	assert.Contains(t, out, "1st  A1  10 pts")
	assert.Contains(t, out, "2nd  B2  20 pts")
	assert.Contains(t, out, "3rd  C3  5 pts")
	assert.NotContains(t, out, "D4", "only three places on the podium")
	assert.NotContains(t, out, "WINNER")
}

func Test_Render_podiumShort(t *testing.T) {
	t.Parallel()

	out := render(t, Snapshot{
		Entries:   testEntries[:1],
		Countdown: countdown.EndedText,
		Synced:    true,
		Ended:     true,
	})
	assert.Contains(t, out, "1st  A1  10 pts")
	assert.Contains(t, out, "2nd  --- ")
	assert.Contains(t, out, "3rd  --- ")
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) {
	return 0, io.ErrClosedPipe
}

func Test_Render_writeError(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, Render(failWriter{}, Snapshot{}), io.ErrClosedPipe)
}

func Test_Terminal_Run(t *testing.T) {
	t.Parallel()

	src := &stubSource{entries: testEntries}
	b, fc := newTestBoard(t, src, time.Second)
	require.NoError(t, refresh(t, b, fc))
	fc.Advance(time.Second)
	require.True(t, b.tick())
	require.True(t, b.Snapshot().Overlay)

	var out bytes.Buffer
	term := Terminal{
		Board: b,
		In:    strings.NewReader("d\nq\n"),
		Out:   &out,
		Clear: true,
	}
	require.NoError(t, term.Run(testContext(t)))

	assert.False(t, b.Snapshot().Overlay)
	assert.True(t, strings.HasPrefix(out.String(), clearScreen))
	assert.Contains(t, out.String(), "WINNER")
}

func Test_Terminal_Run_refresh(t *testing.T) {
	t.Parallel()

	src := &stubSource{entries: testEntries}
	b, fc := newTestBoard(t, src, time.Hour)

	pr, pw := io.Pipe()
	defer pw.Close()

	var out bytes.Buffer
	term := Terminal{Board: b, In: pr, Out: &out}
	ctx := testContext(t)

	done := make(chan error, 1)
	go func() {
		done <- term.Run(ctx)
	}()

	_, err := io.WriteString(pw, "r\n")
	require.NoError(t, err)
	require.NoError(t, fc.BlockUntilContext(ctx, 1))
	assert.Equal(t, 1, src.numCalls())

	_, err = io.WriteString(pw, "q\n")
	require.NoError(t, err)
	require.NoError(t, <-done)
}

func Test_Terminal_Run_cancel(t *testing.T) {
	t.Parallel()

	b, _ := newTestBoard(t, &stubSource{}, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	term := Terminal{Board: b, In: strings.NewReader(""), Out: io.Discard}
	assert.NoError(t, term.Run(ctx))
	assert.ErrorIs(t, (&Terminal{}).Run(ctx), errNoBoard)
}
