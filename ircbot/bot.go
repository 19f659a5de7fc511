// Package ircbot puts the hunt on IRC: participants claim codes and check standings
// with commands, and the bot announces the podium when the round ends.
//
// The commands need the board and the scoring client, so unlike plain go-chat-bot
// plugins this package is not set up from init(). Build a Bot with New, call Register,
// and run Announce alongside irc.Run.
package ircbot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-chat-bot/bot"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/oddlid/qrhunt/board"
	"github.com/oddlid/qrhunt/claim"
	"github.com/oddlid/qrhunt/countdown"
	"github.com/oddlid/qrhunt/scoreapi"
)

const (
	DefaultTopN           = 5
	DefaultCommandTimeout = 20 * time.Second
	DefaultAnnounceRetry  = 30 * time.Second
)

var (
	errNilChatBot   = errors.New("chatBot is nil")
	errEmptyChannel = errors.New("channel name is empty")
	errEmptyMsg     = errors.New("message is empty")
	errNilReceiver  = errors.New("receiver is nil")
	errNoAPI        = errors.New("no scoring api")
	errNoDeadline   = errors.New("no round deadline")
)

// API is the part of the scoring service the commands use
type API interface {
	claim.Submitter
	Student(ctx context.Context, enrollmentNo string) (scoreapi.StudentInfo, error)
}

// messageSender is satisfied by *bot.Bot
type messageSender interface {
	SendMessage(om bot.OutgoingMessage)
}

type Config struct {
	ChatBot  *bot.Bot
	Board    *board.Board // optional, !board answers "unavailable" without it
	API      API
	Clock    *countdown.Clock
	Deadline time.Time
	Channels []string // announcement targets
	Timeout  time.Duration
	Cue      claim.Cue
}

type Bot struct {
	chatBot       messageSender
	board         *board.Board
	api           API
	clock         *countdown.Clock
	deadline      time.Time
	channels      []string
	timeout       time.Duration
	retryInterval time.Duration
	cue           claim.Cue
	mu            sync.Mutex
	forms         map[string]*claim.Form
	announcedTo   map[string]bool // channels that have had the podium
	l             zerolog.Logger
}

func New(cfg Config) (*Bot, error) {
	if cfg.API == nil {
		return nil, errNoAPI
	}
	if cfg.Deadline.IsZero() {
		return nil, errNoDeadline
	}
	if cfg.Clock == nil {
		cfg.Clock = countdown.NewClock(nil, countdown.EventOffset)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultCommandTimeout
	}
	b := &Bot{
		board:         cfg.Board,
		api:           cfg.API,
		clock:         cfg.Clock,
		deadline:      cfg.Deadline,
		channels:      channelNames(cfg.Channels),
		timeout:       cfg.Timeout,
		retryInterval: DefaultAnnounceRetry,
		cue:           cfg.Cue,
		forms:         make(map[string]*claim.Form),
		announcedTo:   make(map[string]bool),
		l:             log.With().Str("package", "ircbot").Logger(),
	}
	if cfg.ChatBot != nil {
		b.chatBot = cfg.ChatBot
	}
	return b, nil
}

// form returns the claim form of nick, creating it on first use
func (b *Bot) form(nick string) (*claim.Form, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if f, ok := b.forms[nick]; ok {
		return f, nil
	}
	f, err := claim.New(claim.Config{
		Deadline:  b.deadline,
		Clock:     b.clock,
		Submitter: b.api,
		Cue:       b.cue,
	})
	if err != nil {
		return nil, err
	}
	b.forms[nick] = f
	return f, nil
}

func (b *Bot) sendMessage(channel, message string) error {
	if b == nil {
		return errNilReceiver
	}
	if b.chatBot == nil {
		return errNilChatBot
	}
	if channel == "" {
		return errEmptyChannel
	}
	if message == "" {
		return errEmptyMsg
	}

	b.chatBot.SendMessage(
		bot.OutgoingMessage{
			Target:  channel,
			Message: message,
			Sender:  &bot.User{},
		},
	)

	return nil
}

// broadcast sends message to every announcement channel
func (b *Bot) broadcast(message string) error {
	if b == nil {
		return errNilReceiver
	}
	var errs []error
	for _, channel := range b.channels {
		if err := b.sendMessage(channel, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// channelNames drops channel keys from "#chan passwd" entries
func channelNames(channels []string) []string {
	names := make([]string, 0, len(channels))
	for _, ch := range channels {
		if fields := strings.Fields(ch); len(fields) > 0 {
			names = append(names, fields[0])
		}
	}
	return names
}
