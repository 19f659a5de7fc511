package claim

type StatusKind uint8

const (
	StatusIdle StatusKind = iota
	StatusSuccess
	StatusError
)

func (k StatusKind) String() string {
	switch k {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Status is the outcome of the last submit, as shown to the participant. Err carries
// the cause for failures and is nil otherwise.
type Status struct {
	Kind    StatusKind
	Message string
	Score   string
	Err     error
}

func (s Status) OK() bool {
	return s.Kind == StatusSuccess
}
