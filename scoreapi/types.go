package scoreapi

import "encoding/json"

// Entry is one row of the leaderboard. Name is an enrollment number or a team name.
type Entry struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
}

type entryPayload struct {
	EnrollmentNo *string `json:"enrollment_no"`
	TeamName     *string `json:"team_name"`
	Score        *int    `json:"score"`
}

type leaderboardPayload struct {
	Leaderboard *[]entryPayload `json:"leaderboard"`
}

type ClaimRequest struct {
	EnrollmentNo string `json:"enrollment_no"`
	SecretCode   string `json:"secret_code"`
}

// ClaimResult is the service verdict on a claim. Score is kept as the number text the
// service sent, so it can be shown verbatim.
type ClaimResult struct {
	Success bool        `json:"success"`
	Score   json.Number `json:"score,omitempty"`
	Message string      `json:"message,omitempty"`
}

type StudentClaim struct {
	EnrollmentNo string `json:"EnrollmentNo"`
	SecretCode   string `json:"SecretCode"`
	Timestamp    string `json:"Timestamp"`
	Multiplier   int    `json:"Multiplier"`
}

type StudentInfo struct {
	EnrollmentNo string         `json:"enrollment_no"`
	Score        int            `json:"score"`
	Claims       []StudentClaim `json:"claims"`
}

type healthPayload struct {
	Status string `json:"status"`
}

func (p entryPayload) entry() (Entry, bool) {
	if p.Score == nil {
		return Entry{}, false
	}
	switch {
	case p.EnrollmentNo != nil:
		return Entry{Name: *p.EnrollmentNo, Points: *p.Score}, true
	case p.TeamName != nil:
		return Entry{Name: *p.TeamName, Points: *p.Score}, true
	default:
		return Entry{}, false
	}
}
