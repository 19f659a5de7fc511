package ircbot

import (
	ircevent "github.com/thoj/go-ircevent"
)

const (
	RPL_WELCOME = "001"
	ERROR       = "ERROR"
)

// Watch logs connection events from conn
func (b *Bot) Watch(conn *ircevent.Connection) {
	if conn == nil {
		return
	}
	conn.AddCallback(RPL_WELCOME, b.onWelcome)
	conn.AddCallback(ERROR, b.onError)
}

func (b *Bot) onWelcome(e *ircevent.Event) {
	b.l.Info().
		Str("server", e.Source).
		Strs("channels", b.channels).
		Msg("Connected")
}

func (b *Bot) onError(e *ircevent.Event) {
	b.l.Error().
		Str("server", e.Source).
		Str("message", e.Message()).
		Msg("Server error")
}
