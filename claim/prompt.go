package claim

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const bell = "\a"

var errNoForm = errors.New("prompt has no form")

// Bell rings the terminal bell as the success cue
type Bell struct {
	W io.Writer
}

func (b Bell) Play() error {
	if b.W == nil {
		return io.ErrClosedPipe
	}
	_, err := io.WriteString(b.W, bell)
	return err
}

// Prompt runs the form interactively: it asks for the enrollment number once, then for
// secret codes until In is exhausted or the round ends.
type Prompt struct {
	Form *Form
	In   io.Reader
	Out  io.Writer
}

func (p *Prompt) Run(ctx context.Context) error {
	if p.Form == nil {
		return errNoForm
	}
	scanner := bufio.NewScanner(p.In)

	for strings.TrimSpace(p.Form.Enrollment()) == "" {
		fmt.Fprint(p.Out, "Your Enrollment No.: ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		p.Form.SetEnrollment(scanner.Text())
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(p.Out, "QR Secret Code: ")
		if !scanner.Scan() {
			fmt.Fprintln(p.Out)
			return scanner.Err()
		}
		if !p.Form.SetCode(scanner.Text()) {
			fmt.Fprintln(p.Out, MsgRoundEnded)
			return nil
		}

		fmt.Fprintln(p.Out, MsgBusy)
		status := p.Form.Submit(ctx)
		fmt.Fprintln(p.Out, status.Message)

		if p.Form.Locked() {
			return nil
		}
	}
}
