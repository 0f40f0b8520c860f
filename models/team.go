package models

import "time"

type Region string

const (
	RegionEast    Region = "east"
	RegionWest    Region = "west"
	RegionSouth   Region = "south"
	RegionMidwest Region = "midwest"
)

type Team struct {
	ID         int       `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Seed       int       `json:"seed" db:"seed"`
	Region     Region    `json:"region" db:"region"`
	Eliminated bool      `json:"eliminated" db:"eliminated"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`
}
