package ircbot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chat-bot/bot"

	"github.com/oddlid/qrhunt/board"
	"github.com/oddlid/qrhunt/scoreapi"
)

const (
	cmdClaim     = "claim"
	cmdBoard     = "board"
	cmdCountdown = "countdown"
	cmdScore     = "score"
	argRefresh   = "refresh"

	usageClaim = "Usage: !claim <enrollment no> <secret code>, or !claim <secret code> after your first claim"
	usageBoard = "Usage: !board [count|refresh]"
	usageScore = "Usage: !score [enrollment no]"
)

// Register adds the hunt commands to go-chat-bot
func (b *Bot) Register() {
	bot.RegisterCommand(
		cmdClaim,
		"Claim a secret code found during the hunt",
		"[enrollment no] <secret code>",
		b.claim,
	)
	bot.RegisterCommand(
		cmdBoard,
		"Show the top of the leaderboard, or sync it",
		"[count|refresh]",
		b.standings,
	)
	bot.RegisterCommand(
		cmdCountdown,
		"Show the time left in the round",
		"",
		b.countdown,
	)
	bot.RegisterCommand(
		cmdScore,
		"Show the score and claims of a participant",
		"[enrollment no]",
		b.score,
	)
	b.l.Debug().Msg("Commands registered")
}

func (b *Bot) commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), b.timeout)
}

func (b *Bot) claim(cmd *bot.Cmd) (string, error) {
	nick := cmd.User.Nick
	f, err := b.form(nick)
	if err != nil {
		return "", err
	}

	switch len(cmd.Args) {
	case 1:
		if strings.TrimSpace(f.Enrollment()) == "" {
			return usageClaim, nil
		}
		f.SetCode(cmd.Args[0])
	case 2:
		f.SetEnrollment(cmd.Args[0])
		f.SetCode(cmd.Args[1])
	default:
		return usageClaim, nil
	}

	ctx, cancel := b.commandContext()
	defer cancel()

	status := f.Submit(ctx)
	b.l.Debug().
		Str("nick", nick).
		Str("channel", cmd.Channel).
		Stringer("status", status.Kind).
		Msg("Claim command")
	return fmt.Sprintf("%s: %s", nick, status.Message), nil
}

func (b *Bot) standings(cmd *bot.Cmd) (string, error) {
	if b.board == nil {
		return "Leaderboard unavailable", nil
	}

	n := DefaultTopN
	if len(cmd.Args) > 1 {
		return usageBoard, nil
	}
	if len(cmd.Args) == 1 {
		if cmd.Args[0] == argRefresh {
			return b.refresh(), nil
		}
		v, err := strconv.Atoi(cmd.Args[0])
		if err != nil || v < 1 {
			return usageBoard, nil
		}
		n = v
	}

	return formatStandings(b.board.Snapshot(), n), nil
}

func (b *Bot) refresh() string {
	ctx, cancel := b.commandContext()
	defer cancel()

	err := b.board.Refresh(ctx)
	switch {
	case errors.Is(err, board.ErrBusy):
		return "A sync is already running"
	case err != nil:
		return "Sync failed: " + scoreapi.Message(errors.Unwrap(err))
	}
	return formatStandings(b.board.Snapshot(), DefaultTopN)
}

func (b *Bot) countdown(*bot.Cmd) (string, error) {
	if b.clock.Ended(b.deadline) {
		return b.clock.Format(b.deadline), nil
	}
	return "Time remaining: " + b.clock.Format(b.deadline), nil
}

func (b *Bot) score(cmd *bot.Cmd) (string, error) {
	var enrollment string
	switch len(cmd.Args) {
	case 0:
		f, err := b.form(cmd.User.Nick)
		if err != nil {
			return "", err
		}
		enrollment = strings.TrimSpace(f.Enrollment())
	case 1:
		enrollment = cmd.Args[0]
	}
	if enrollment == "" {
		return usageScore, nil
	}

	ctx, cancel := b.commandContext()
	defer cancel()

	info, err := b.api.Student(ctx, enrollment)
	if err != nil {
		var se *scoreapi.StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return fmt.Sprintf("%s: no such participant", enrollment), nil
		}
		return fmt.Sprintf("%s: %s", enrollment, scoreapi.Message(err)), nil
	}
	return fmt.Sprintf("%s: %d points, %d codes claimed", info.EnrollmentNo, info.Score, len(info.Claims)), nil
}
