package rotation

import (
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/chorewheel/internal/week"
)

// Member is a household member in rotation order. ID is stable; Name is only
// for display and may change without affecting anyone's position.
type Member struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// SoleTask is a chore that rotates only among the members listed in Responsible.
type SoleTask struct {
	Title       string   `json:"title" yaml:"title"`
	Responsible []string `json:"responsible" yaml:"responsible"`
}

// Config is everything the resolver needs for one household.
type Config struct {
	Anchor      time.Time
	CycleLength int
	Members     []Member
	Bundles     []Bundle
	SoleTasks   []SoleTask
}

// Validate reports configuration errors that make resolution meaningless.
func (c Config) Validate() error {
	if c.CycleLength <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidCycleLength, c.CycleLength)
	}
	if err := week.Validate(c.Anchor); err != nil {
		return fmt.Errorf("anchor: %w", err)
	}
	return c.checkTitles()
}

// checkTitles keeps Week.Mapping one-to-one: a sole task may not reuse a
// bundle title, a chore inside a bundle, or another sole task's title.
func (c Config) checkTitles() error {
	taken := make(map[string]string)
	for _, b := range c.Bundles {
		taken[b.Title] = "bundle " + b.ID
		for _, chore := range b.Chores {
			taken[chore] = "bundle " + b.ID
		}
	}
	for _, t := range c.SoleTasks {
		if owner, ok := taken[t.Title]; ok {
			return fmt.Errorf("%w: sole task %q clashes with %s", ErrDuplicateTitle, t.Title, owner)
		}
		taken[t.Title] = "sole task"
	}
	return nil
}

type BundleAssignment struct {
	BundleID    string   `json:"bundle_id"`
	Title       string   `json:"title"`
	Chores      []string `json:"chores"`
	MemberID    string   `json:"member_id"`
	MemberName  string   `json:"member_name"`
	MemberIndex int      `json:"member_index"`
}

type SoleResult struct {
	Title      string `json:"title"`
	MemberID   string `json:"member_id,omitempty"`
	MemberName string `json:"member_name"`
}

// Assigned reports whether the task resolved to a member.
func (r SoleResult) Assigned() bool {
	return r.MemberID != ""
}

// Week is the resolved schedule for one calendar week.
type Week struct {
	Key     string             `json:"week_key"`
	Range   week.Range         `json:"range"`
	Index   int                `json:"rotation_index"`
	Number  int                `json:"rotation_week"`
	Elapsed int                `json:"weeks_elapsed"`
	Bundles []BundleAssignment `json:"bundles"`
	Sole    []SoleResult       `json:"sole_tasks"`
}

// Mapping returns chore title to member name, with Unassigned for sole tasks
// nobody is responsible for. Titles are unique within a validated Config, so
// every assignment of the week has exactly one entry.
func (w Week) Mapping() map[string]string {
	m := make(map[string]string, len(w.Bundles)+len(w.Sole))
	for _, b := range w.Bundles {
		m[b.Title] = b.MemberName
	}
	for _, s := range w.Sole {
		m[s.Title] = s.MemberName
	}
	return m
}

// BundleAssignments rotates bundles round-robin over members. Bundle i goes to
// members[(i + index) mod len(members)]; with no members nothing is assigned.
func BundleAssignments(bundles []Bundle, members []Member, index int) []BundleAssignment {
	if len(bundles) == 0 || len(members) == 0 {
		return nil
	}

	out := make([]BundleAssignment, 0, len(bundles))
	for i, b := range bundles {
		mi := floorMod(i+index, len(members))
		out = append(out, BundleAssignment{
			BundleID:    b.ID,
			Title:       b.Title,
			Chores:      b.Chores,
			MemberID:    members[mi].ID,
			MemberName:  members[mi].Name,
			MemberIndex: mi,
		})
	}
	return out
}

// SoleAssignee returns the member ID responsible for task in target's week, or
// "" when nobody is. Rotation runs over the distinct responsible members in the
// order they are listed, at a cadence set by how many there are.
func SoleAssignee(task SoleTask, anchor, target time.Time) (string, error) {
	responsible := distinct(task.Responsible)
	switch len(responsible) {
	case 0:
		return "", nil
	case 1:
		return responsible[0], nil
	}

	if err := week.Validate(anchor); err != nil {
		return "", fmt.Errorf("anchor: %w", err)
	}
	if err := week.Validate(target); err != nil {
		return "", fmt.Errorf("target week: %w", err)
	}
	idx := floorMod(week.Between(anchor, target), len(responsible))
	return responsible[idx], nil
}

// Resolve computes the complete assignment for the week containing target.
func Resolve(cfg Config, target time.Time) (Week, error) {
	if err := cfg.Validate(); err != nil {
		return Week{}, err
	}
	if err := week.Validate(target); err != nil {
		return Week{}, fmt.Errorf("target week: %w", err)
	}

	monday := week.StartOfMonday(target)
	index, err := Index(cfg.Anchor, monday, cfg.CycleLength)
	if err != nil {
		return Week{}, err
	}

	names := make(map[string]string, len(cfg.Members))
	for _, m := range cfg.Members {
		names[m.ID] = m.Name
	}

	sole := make([]SoleResult, 0, len(cfg.SoleTasks))
	for _, t := range cfg.SoleTasks {
		id, err := SoleAssignee(t, cfg.Anchor, monday)
		if err != nil {
			return Week{}, fmt.Errorf("sole task %q: %w", t.Title, err)
		}
		r := SoleResult{Title: t.Title, MemberID: id, MemberName: Unassigned}
		if id != "" {
			r.MemberName = id
			if name, ok := names[id]; ok {
				r.MemberName = name
			}
		}
		sole = append(sole, r)
	}

	return Week{
		Key:     week.Key(monday),
		Range:   week.FormatRange(monday),
		Index:   index,
		Number:  WeekNumber(index),
		Elapsed: week.Between(cfg.Anchor, monday),
		Bundles: BundleAssignments(cfg.Bundles, cfg.Members, index),
		Sole:    sole,
	}, nil
}

// ResolveMonth resolves every week that overlaps the given month. Weeks are
// taken in the anchor's location.
func ResolveMonth(cfg Config, year int, month time.Month) ([]Week, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if month < time.January || month > time.December {
		return nil, errors.New("month out of range")
	}

	mondays := week.Month(year, month, cfg.Anchor.Location())
	weeks := make([]Week, 0, len(mondays))
	for _, m := range mondays {
		w, err := Resolve(cfg, m)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", week.Key(m), err)
		}
		weeks = append(weeks, w)
	}
	return weeks, nil
}

func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
