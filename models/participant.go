package models

import "time"

type Participant struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`

	// Optional linked data, populated by the service layer.
	Teams  []Team  `json:"teams,omitempty"`
	Scores []Score `json:"scores,omitempty"`
}
