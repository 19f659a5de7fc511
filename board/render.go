package board

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/oddlid/qrhunt/scoreapi"
	"github.com/oddlid/qrhunt/util"
)

const (
	title        = "QR HUNT LIVE"
	maxNameWidth = 32
)

var podiumLabels = [PodiumSize]string{"1st", "2nd", "3rd"}

// Render writes a text frame of the board state to w
func Render(w io.Writer, s Snapshot) error {
	var sb strings.Builder

	sb.WriteString(title + "\n")
	if s.Ended {
		fmt.Fprintf(&sb, "Final Standings: %s\n", s.Countdown)
	} else {
		fmt.Fprintf(&sb, "Time Remaining: %s\n", s.Countdown)
	}
	if s.Busy {
		sb.WriteString("SYNCING...\n")
	}
	sb.WriteString("\n")

	switch s.Phase() {
	case PhaseLoading:
		sb.WriteString("API HANDSHAKE...\n")
	case PhaseError:
		fmt.Fprintf(&sb, "ERROR: %s\n", s.ErrMessage())
		sb.WriteString("Press r to RETRY\n")
	case PhaseLive:
		renderTable(&sb, s.Entries)
	case PhaseRoundOver:
		renderWinner(&sb, s)
	case PhaseViewing:
		renderPodium(&sb, s)
	}

	if s.Synced {
		fmt.Fprintf(&sb, "\nLast synced: %s\n", s.LastSync.Format(time.TimeOnly))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func names(entries []scoreapi.Entry) []string {
	ns := make([]string, len(entries))
	for i := range entries {
		ns[i] = util.Truncate(entries[i].Name, maxNameWidth)
	}
	return ns
}

func renderTable(sb *strings.Builder, entries []scoreapi.Entry) {
	if len(entries) == 0 {
		sb.WriteString("No scores yet\n")
		return
	}

	ns := names(entries)
	nameWidth := max(util.LongestLen(ns), len("NAME"))
	rankWidth := len(strconv.Itoa(len(entries)))
	rowFmt := fmt.Sprintf("%%%dd  %s", rankWidth, util.PadFmt(nameWidth, "%6d\n"))

	fmt.Fprintf(sb, "%s  %s", strings.Repeat("#", rankWidth), fmt.Sprintf(util.PadFmt(nameWidth, "%6s\n"), "NAME", "POINTS"))
	for i, e := range entries {
		fmt.Fprintf(sb, rowFmt, i+1, ns[i], e.Points)
	}
}

func renderPodium(sb *strings.Builder, s Snapshot) {
	podium := s.Podium()
	ns := names(s.Entries[:min(len(s.Entries), PodiumSize)])
	nameWidth := max(util.LongestLen(ns), 3)
	slotFmt := "%s  " + util.PadFmt(nameWidth, "%s\n")

	for i, e := range podium {
		if e == nil {
			fmt.Fprintf(sb, slotFmt, podiumLabels[i], "---", "")
			continue
		}
		fmt.Fprintf(sb, slotFmt, podiumLabels[i], ns[i], fmt.Sprintf("%d pts", e.Points))
	}
}

func renderWinner(sb *strings.Builder, s Snapshot) {
	winner, ok := s.Winner()
	if !ok {
		return
	}
	sb.WriteString("******** WINNER ********\n")
	fmt.Fprintf(sb, "  %s\n", winner.Name)
	fmt.Fprintf(sb, "  %d POINTS\n", winner.Points)
	sb.WriteString("Press d to dismiss and view results\n")
}
