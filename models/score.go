package models

import "time"

// Score holds one participant's points for one scoring period.
// Rows are created at zero when the participant registers and are
// entirely derived afterwards: every recomputation overwrites them.
type Score struct {
	ID            int       `json:"id" db:"id"`
	ParticipantID int       `json:"participant_id" db:"participant_id"`
	Period        int       `json:"period" db:"period"`
	Points        int       `json:"points" db:"points"`
	Cumulative    int       `json:"cumulative" db:"cumulative"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
