package model

import "time"

// Member is a person in a household's rotation. Key is the stable identifier
// used by the scheduler; SortOrder is insertion order and never follows Name.
type Member struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
