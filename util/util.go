package util

import (
	"fmt"
	"unicode/utf8"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// PadFmt returns a format string that left-aligns its first %s argument in a column of
// width alignAt, followed by format
func PadFmt(alignAt int, format string) string {
	return fmt.Sprintf("%s%d%s", "%-", alignAt, "s "+format)
}

// LongestLen returns the rune length of the longest string in s
func LongestLen(s []string) int {
	maxlen := 0
	for i := range s {
		if nlen := utf8.RuneCountInString(s[i]); nlen > maxlen {
			maxlen = nlen
		}
	}
	return maxlen
}

// Truncate shortens s to at most n runes, marking the cut with "~"
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "~"
}

type cronLogger struct {
	l zerolog.Logger
}

// CronLogger adapts a zerolog logger for cron.WithLogger. Routine scheduler chatter is
// logged at debug level.
func CronLogger(l zerolog.Logger) cron.Logger {
	return cronLogger{l: l.With().Str("component", "cron").Logger()}
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
