package models

import "time"

type UserRole string

const (
	RoleAdmin UserRole = "admin"
)

// User is an operator account: admins enter game results and import rosters.
// Pool participants are not users, they only hold an email for notifications.
type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
