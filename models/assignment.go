package models

import "time"

type Assignment struct {
	ID            int       `json:"id"`
	ParticipantID int       `json:"participant_id"`
	TeamID        int       `json:"team_id"`
	Primary       bool      `json:"primary"`
	CreatedAt     time.Time `json:"created_at"`

	Team *Team `json:"team,omitempty"`
}
