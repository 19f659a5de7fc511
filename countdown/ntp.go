package countdown

import (
	"time"

	"github.com/beevik/ntp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// logger derives from the global logger on every call, picking up output set after init
func logger() zerolog.Logger {
	return log.With().Str("package", "countdown").Logger()
}

// QueryOffset asks an NTP server how far the local clock is off. The result can be
// given to Clock.WithSkew.
func QueryOffset(server string) (time.Duration, error) {
	l := logger()
	res, err := ntp.Query(server)
	if err != nil {
		l.Error().
			Err(err).
			Str("func", "QueryOffset").
			Str("server", server).
			Send()
		return 0, err
	}
	if err := res.Validate(); err != nil {
		l.Error().
			Err(err).
			Str("func", "QueryOffset").
			Str("server", server).
			Msg("Invalid NTP response")
		return 0, err
	}
	l.Debug().
		Str("server", server).
		Dur("offset", res.ClockOffset).
		Dur("rtt", res.RTT).
		Msg("NTP offset")
	return res.ClockOffset, nil
}
