package models

import "time"

type Round string

const (
	RoundOf64    Round = "Round of 64"
	RoundOf32    Round = "Round of 32"
	RoundSweet16 Round = "Sweet 16"
	RoundElite8  Round = "Elite 8"
	RoundFinal4  Round = "Final Four"
	RoundChamp   Round = "Championship"
)

// Rounds lists every round label in bracket order.
var Rounds = []Round{RoundOf64, RoundOf32, RoundSweet16, RoundElite8, RoundFinal4, RoundChamp}

func (r Round) Valid() bool {
	for _, known := range Rounds {
		if r == known {
			return true
		}
	}
	return false
}

type Game struct {
	ID        int       `json:"id"`
	Round     Round     `json:"round"`
	TeamAID   int       `json:"team_a_id"`
	TeamBID   int       `json:"team_b_id"`
	WinnerID  *int      `json:"winner_id,omitempty"`
	ScoreA    *int      `json:"score_a,omitempty"`
	ScoreB    *int      `json:"score_b,omitempty"`
	Completed bool      `json:"completed"`
	UpdatedAt time.Time `json:"updated_at"`

	TeamA *Team `json:"team_a,omitempty"`
	TeamB *Team `json:"team_b,omitempty"`
}
