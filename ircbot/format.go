package ircbot

import (
	"fmt"
	"strings"

	"github.com/oddlid/qrhunt/board"
	"github.com/oddlid/qrhunt/util"
)

const (
	maxNameWidth = 24
	separator    = " | "
)

var podiumLabels = [board.PodiumSize]string{"1st", "2nd", "3rd"}

// formatStandings renders the first n entries on one line
func formatStandings(s board.Snapshot, n int) string {
	switch s.Phase() {
	case board.PhaseError:
		return "ERROR: " + s.ErrMessage()
	case board.PhaseLoading:
		return "Leaderboard not synced yet"
	}
	if len(s.Entries) == 0 {
		return "No scores yet"
	}

	entries := s.Entries[:min(n, len(s.Entries))]
	rows := make([]string, len(entries))
	for i, e := range entries {
		rows[i] = fmt.Sprintf("%d. %s (%d)", i+1, util.Truncate(e.Name, maxNameWidth), e.Points)
	}

	prefix := "Standings [" + s.Countdown + "]: "
	if s.Ended {
		prefix = "Final standings: "
	}
	return prefix + strings.Join(rows, separator)
}

// formatPodium renders the round-over announcement
func formatPodium(s board.Snapshot) string {
	podium := s.Podium()
	slots := make([]string, len(podium))
	for i, e := range podium {
		if e == nil {
			slots[i] = podiumLabels[i] + ": ---"
			continue
		}
		slots[i] = fmt.Sprintf("%s: %s (%d pts)", podiumLabels[i], util.Truncate(e.Name, maxNameWidth), e.Points)
	}
	msg := "ROUND ENDED! " + strings.Join(slots, separator)
	if w, ok := s.Winner(); ok {
		msg += fmt.Sprintf(" -- Congratulations, %s!", w.Name)
	}
	return msg
}
