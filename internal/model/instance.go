package model

import "time"

type InstanceKind string

const (
	KindBundle InstanceKind = "bundle"
	KindSole   InstanceKind = "sole"
)

type ChangeType string

const (
	ChangeAssigned    ChangeType = "assigned"
	ChangeUnassigned  ChangeType = "unassigned"
	ChangeSwapped     ChangeType = "swapped"
	ChangeDueDate     ChangeType = "due_date"
	ChangeCompleted   ChangeType = "completed"
	ChangeUncompleted ChangeType = "uncompleted"
)

// ChoreInstance is a materialized chore for one week.
type ChoreInstance struct {
	ID               int64        `json:"id"`
	HouseholdID      int64        `json:"household_id"`
	WeekKey          string       `json:"week_key"`
	ChoreKey         string       `json:"chore_key"`
	Kind             InstanceKind `json:"kind"`
	Title            string       `json:"title"`
	BundleChores     []string     `json:"bundle_chores,omitempty"`
	AssignedMemberID *int64       `json:"assigned_member_id"`
	AssignedName     string       `json:"assigned_name"`
	DueAt            time.Time    `json:"due_at"`
	DoneAt           *time.Time   `json:"done_at"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

func (c ChoreInstance) IsDone() bool {
	return c.DoneAt != nil
}

type InstanceChange struct {
	ID          int64      `json:"id"`
	InstanceID  int64      `json:"instance_id"`
	ChangeType  ChangeType `json:"change_type"`
	ChangedBy   string     `json:"changed_by"`
	OldValue    string     `json:"old_value,omitempty"`
	NewValue    string     `json:"new_value,omitempty"`
	SwappedWith string     `json:"swapped_with,omitempty"`
	ChangedAt   time.Time  `json:"changed_at"`
}
