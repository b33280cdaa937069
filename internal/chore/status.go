// Package chore derives display status for materialized chore instances.
package chore

import (
	"time"

	"github.com/dukerupert/chorewheel/internal/model"
	"github.com/dukerupert/chorewheel/internal/week"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusOverdue   Status = "overdue"
	StatusNotDue    Status = "not_due"
)

type InstanceWithStatus struct {
	model.ChoreInstance
	Status Status `json:"status"`
}

// ComputeStatus reports where an instance stands at now. The week key is read
// in loc; instances whose week has not started yet are not due.
func ComputeStatus(in model.ChoreInstance, now time.Time, loc *time.Location) Status {
	if in.IsDone() {
		return StatusCompleted
	}

	start, err := week.ParseKey(in.WeekKey, loc)
	if err == nil && now.Before(start) {
		return StatusNotDue
	}
	if now.After(in.DueAt) {
		return StatusOverdue
	}
	return StatusPending
}

// WithStatus annotates every instance with its status at now.
func WithStatus(instances []model.ChoreInstance, now time.Time, loc *time.Location) []InstanceWithStatus {
	out := make([]InstanceWithStatus, 0, len(instances))
	for _, in := range instances {
		out = append(out, InstanceWithStatus{ChoreInstance: in, Status: ComputeStatus(in, now, loc)})
	}
	return out
}
