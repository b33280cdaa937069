package model

import "time"

// CommonChore is a common-area chore title; titles are grouped into bundles at
// resolution time.
type CommonChore struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	Title       string    `json:"title"`
	CreatedAt   time.Time `json:"created_at"`
}

// SoleTask rotates only among Responsible, in order.
type SoleTask struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	Key         string    `json:"key"`
	Title       string    `json:"title"`
	Responsible []Member  `json:"responsible"`
	CreatedAt   time.Time `json:"created_at"`
}

// LegacySlot is one entry of an older per-task schedule, positioned either by a
// 1-based week number or by a rotation index.
type LegacySlot struct {
	MemberID      int64 `json:"member_id"`
	Week          *int  `json:"week,omitempty"`
	RotationIndex *int  `json:"rotation_index,omitempty"`
}
