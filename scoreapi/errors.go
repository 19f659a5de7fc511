package scoreapi

import (
	"errors"
	"fmt"
)

var (
	ErrNetworkUnavailable = errors.New("scoring service unreachable")
	ErrMalformedPayload   = errors.New("malformed payload")
	ErrUnhealthy          = errors.New("scoring service reports unhealthy")
)

// StatusError is returned when the service answers with a non-2xx status
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API Offline (%d)", e.Code)
}

// Message maps an error from this package to the text shown to users
func Message(err error) string {
	var se *StatusError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &se):
		return se.Error()
	case errors.Is(err, ErrNetworkUnavailable):
		return "Server is offline"
	case errors.Is(err, ErrMalformedPayload):
		return "Unexpected response from server"
	default:
		return err.Error()
	}
}
