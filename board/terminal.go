package board

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

const clearScreen = "\033[H\033[2J"

var errNoBoard = errors.New("terminal has no board")

// Terminal draws the board to Out on every change and reads single-letter commands,
// one per line, from In: r refreshes, d dismisses the winner overlay, q quits.
type Terminal struct {
	Board *Board
	In    io.Reader
	Out   io.Writer
	Clear bool // clear the screen before each frame
}

// Run returns nil when the user quits, In is exhausted after a quit, or ctx is done
func (t *Terminal) Run(ctx context.Context) error {
	if t.Board == nil {
		return errNoBoard
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	changes, unsubscribe := t.Board.Subscribe()
	defer unsubscribe()

	var cmds <-chan string
	if t.In != nil {
		cmds = readLines(ctx, t.In)
	}

	if err := t.draw(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			if err := t.draw(); err != nil {
				return err
			}
		case line, ok := <-cmds:
			if !ok {
				// keep drawing without input
				cmds = nil
				continue
			}
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "r":
				wg.Add(1)
				go func() {
					defer wg.Done()
					if err := t.Board.Refresh(ctx); err != nil && !errors.Is(err, ErrBusy) {
						t.Board.l.Debug().Err(err).Msg("Manual refresh failed")
					}
				}()
			case "d":
				t.Board.Dismiss()
			case "q":
				return nil
			}
		}
	}
}

func (t *Terminal) draw() error {
	if t.Clear {
		if _, err := io.WriteString(t.Out, clearScreen); err != nil {
			return err
		}
	}
	return Render(t.Out, t.Board.Snapshot())
}

func readLines(ctx context.Context, r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case ch <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
