package model

import "time"

type Household struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Timezone    string    `json:"timezone"`
	AnchorDate  string    `json:"anchor_date"`
	CycleLength int       `json:"cycle_length"`
	HasAdminPIN bool      `json:"has_admin_pin"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Location returns the household's time zone, falling back to UTC when the
// stored name is unknown to the system tz database.
func (h Household) Location() *time.Location {
	loc, err := time.LoadLocation(h.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
