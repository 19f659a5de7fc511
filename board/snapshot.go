package board

import (
	"time"

	"github.com/oddlid/qrhunt/scoreapi"
)

type Phase uint8

const (
	PhaseLoading   Phase = iota // waiting for the first sync
	PhaseError                  // last sync failed
	PhaseLive                   // round running, ranked table
	PhaseRoundOver              // round over, winner overlay showing
	PhaseViewing                // round over, podium
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseError:
		return "error"
	case PhaseLive:
		return "live"
	case PhaseRoundOver:
		return "round over"
	default:
		return "viewing"
	}
}

// Snapshot is a copy of the board state at one point in time
type Snapshot struct {
	Entries   []scoreapi.Entry
	Countdown string
	LastSync  time.Time
	Err       error
	Synced    bool // at least one sync succeeded
	Busy      bool
	Ended     bool
	Overlay   bool // winner overlay showing
}

// Phase picks what to draw. The winner overlay wins over a sync error, since it only
// shows once standings exist.
func (s Snapshot) Phase() Phase {
	switch {
	case s.Overlay:
		return PhaseRoundOver
	case s.Err != nil:
		return PhaseError
	case !s.Synced:
		return PhaseLoading
	case !s.Ended:
		return PhaseLive
	default:
		return PhaseViewing
	}
}

func (s Snapshot) ErrMessage() string {
	return scoreapi.Message(s.Err)
}

// Podium returns the first PodiumSize entries in received order. Empty slots are nil.
func (s Snapshot) Podium() [PodiumSize]*scoreapi.Entry {
	var p [PodiumSize]*scoreapi.Entry
	for i := range p {
		if i < len(s.Entries) {
			p[i] = &s.Entries[i]
		}
	}
	return p
}

// Winner returns the top entry, if there is one
func (s Snapshot) Winner() (scoreapi.Entry, bool) {
	if len(s.Entries) == 0 {
		return scoreapi.Entry{}, false
	}
	return s.Entries[0], true
}
