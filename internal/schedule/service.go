// Package schedule connects stored household configuration to the rotation
// engine and writes resolved weeks out as chore instances.
package schedule

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/chorewheel/internal/model"
	"github.com/dukerupert/chorewheel/internal/rotation"
	"github.com/dukerupert/chorewheel/internal/store"
	"github.com/dukerupert/chorewheel/internal/week"
)

var ErrNotFound = errors.New("household not found")

// SoleKeyPrefix namespaces sole-task chore keys apart from bundle IDs.
const SoleKeyPrefix = "sole:"

type Service struct {
	households *store.HouseholdStore
	members    *store.MemberStore
	chores     *store.ChoreStore
	instances  *store.InstanceStore
	logger     *slog.Logger
}

func NewService(hs *store.HouseholdStore, ms *store.MemberStore, cs *store.ChoreStore, is *store.InstanceStore, logger *slog.Logger) *Service {
	return &Service{households: hs, members: ms, chores: cs, instances: is, logger: logger}
}

// Snapshot is a household's configuration as the rotation engine sees it,
// plus the lookups needed to map results back to stored members.
type Snapshot struct {
	Household *model.Household
	Config    rotation.Config
	Location  *time.Location
	byKey     map[string]model.Member
}

// MemberByKey maps a rotation member ID back to the stored member.
func (s *Snapshot) MemberByKey(key string) (model.Member, bool) {
	m, ok := s.byKey[key]
	return m, ok
}

// Load reads the household's current configuration. It is always rebuilt from
// configuration, never from previously materialized instances.
func (s *Service) Load(householdID int64) (*Snapshot, error) {
	h, err := s.households.GetByID(householdID)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, ErrNotFound
	}

	loc := h.Location()
	anchor, err := week.ParseKey(h.AnchorDate, loc)
	if err != nil {
		return nil, fmt.Errorf("household %d anchor: %w", h.ID, err)
	}

	members, err := s.members.List(h.ID)
	if err != nil {
		return nil, err
	}
	titles, err := s.chores.CommonTitles(h.ID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.chores.ListSoleTasks(h.ID)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Household: h,
		Location:  loc,
		byKey:     make(map[string]model.Member, len(members)),
		Config: rotation.Config{
			Anchor:      anchor,
			CycleLength: h.CycleLength,
		},
	}
	for _, m := range members {
		snap.byKey[m.Key] = m
		snap.Config.Members = append(snap.Config.Members, rotation.Member{ID: m.Key, Name: m.Name})
	}
	snap.Config.Bundles = rotation.BuildBundles(titles, len(members))
	for _, t := range tasks {
		st := rotation.SoleTask{Title: t.Title}
		for _, m := range t.Responsible {
			st.Responsible = append(st.Responsible, m.Key)
		}
		snap.Config.SoleTasks = append(snap.Config.SoleTasks, st)
	}
	return snap, nil
}

// Location returns the household's time zone.
func (s *Service) Location(householdID int64) (*time.Location, error) {
	h, err := s.households.GetByID(householdID)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, ErrNotFound
	}
	return h.Location(), nil
}

// Week resolves the week containing target, interpreted in the household's
// time zone.
func (s *Service) Week(householdID int64, target time.Time) (*rotation.Week, error) {
	snap, err := s.Load(householdID)
	if err != nil {
		return nil, err
	}
	w, err := rotation.Resolve(snap.Config, target.In(snap.Location))
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// WeekByKey resolves the week containing the YYYY-MM-DD date key, read in the
// household's time zone.
func (s *Service) WeekByKey(householdID int64, key string) (*rotation.Week, error) {
	snap, err := s.Load(householdID)
	if err != nil {
		return nil, err
	}
	target, err := week.ParseKey(key, snap.Location)
	if err != nil {
		return nil, err
	}
	w, err := rotation.Resolve(snap.Config, target)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Month resolves every week overlapping the given month.
func (s *Service) Month(householdID int64, year int, month time.Month) ([]rotation.Week, error) {
	snap, err := s.Load(householdID)
	if err != nil {
		return nil, err
	}
	return rotation.ResolveMonth(snap.Config, year, month)
}

// Bundles returns the household's current bundle partition.
func (s *Service) Bundles(householdID int64) ([]rotation.Bundle, error) {
	snap, err := s.Load(householdID)
	if err != nil {
		return nil, err
	}
	return snap.Config.Bundles, nil
}

type MaterializeResult struct {
	HouseholdID int64  `json:"household_id"`
	Code        string `json:"code"`
	WeekKey     string `json:"week_key"`
	Created     int    `json:"created"`
	Existing    int    `json:"existing"`
}

// Materialize writes chore instances for the week containing now. Instances
// already stored for that week are kept as they are.
func (s *Service) Materialize(householdID int64, now time.Time) (MaterializeResult, error) {
	snap, err := s.Load(householdID)
	if err != nil {
		return MaterializeResult{}, err
	}

	local := now.In(snap.Location)
	w, err := rotation.Resolve(snap.Config, local)
	if err != nil {
		return MaterializeResult{}, fmt.Errorf("resolve week: %w", err)
	}

	instances := Instances(snap, w, week.EndOfSunday(local))
	created, err := s.instances.CreateForWeek(instances)
	if err != nil {
		return MaterializeResult{}, err
	}

	result := MaterializeResult{
		HouseholdID: householdID,
		Code:        snap.Household.Code,
		WeekKey:     w.Key,
		Created:     created,
		Existing:    len(instances) - created,
	}
	s.logger.Info("materialized week",
		"household_id", householdID, "week", w.Key, "created", result.Created, "existing", result.Existing)
	return result, nil
}

// Instances turns a resolved week into one chore instance per bundle and per
// sole task, all due at due.
func Instances(snap *Snapshot, w rotation.Week, due time.Time) []model.ChoreInstance {
	householdID := snap.Household.ID
	out := make([]model.ChoreInstance, 0, len(w.Bundles)+len(w.Sole))

	for _, b := range w.Bundles {
		in := model.ChoreInstance{
			HouseholdID:  householdID,
			WeekKey:      w.Key,
			ChoreKey:     b.BundleID,
			Kind:         model.KindBundle,
			Title:        b.Title,
			BundleChores: b.Chores,
			AssignedName: b.MemberName,
			DueAt:        due,
		}
		if m, ok := snap.MemberByKey(b.MemberID); ok {
			id := m.ID
			in.AssignedMemberID = &id
		}
		out = append(out, in)
	}

	for _, r := range w.Sole {
		in := model.ChoreInstance{
			HouseholdID: householdID,
			WeekKey:     w.Key,
			ChoreKey:    SoleKeyPrefix + r.Title,
			Kind:        model.KindSole,
			Title:       r.Title,
			DueAt:       due,
		}
		if r.Assigned() {
			in.AssignedName = r.MemberName
			if m, ok := snap.MemberByKey(r.MemberID); ok {
				id := m.ID
				in.AssignedMemberID = &id
			}
		}
		out = append(out, in)
	}
	return out
}
