package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/chorewheel/internal/model"
)

var ErrSwapAcrossWeeks = errors.New("instances belong to different weeks")

type InstanceStore struct {
	db *sql.DB
}

func NewInstanceStore(db *sql.DB) *InstanceStore {
	return &InstanceStore{db: db}
}

func scanInstance(scanner interface{ Scan(...any) error }) (*model.ChoreInstance, error) {
	var c model.ChoreInstance
	var kind, bundleChores string
	var memberID sql.NullInt64
	var doneAt sql.NullTime

	err := scanner.Scan(
		&c.ID, &c.HouseholdID, &c.WeekKey, &c.ChoreKey, &kind, &c.Title, &bundleChores,
		&memberID, &c.AssignedName, &c.DueAt, &doneAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Kind = model.InstanceKind(kind)
	if bundleChores != "" {
		if err := json.Unmarshal([]byte(bundleChores), &c.BundleChores); err != nil {
			return nil, fmt.Errorf("decode bundle chores: %w", err)
		}
	}
	if memberID.Valid {
		c.AssignedMemberID = &memberID.Int64
	}
	if doneAt.Valid {
		c.DoneAt = &doneAt.Time
	}
	return &c, nil
}

const instanceCols = `id, household_id, week_key, chore_key, kind, title, bundle_chores, assigned_member_id, assigned_name, due_at, done_at, created_at, updated_at`

// CreateForWeek inserts the given instances, skipping any whose
// (household, week, chore) already exists so edits made to a materialized week
// survive recomputation. It returns how many rows were new.
func (s *InstanceStore) CreateForWeek(instances []model.ChoreInstance) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO chore_instances (household_id, week_key, chore_key, kind, title, bundle_chores, assigned_member_id, assigned_name, due_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(household_id, week_key, chore_key) DO NOTHING`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	created := 0
	for _, in := range instances {
		var chores string
		if len(in.BundleChores) > 0 {
			b, err := json.Marshal(in.BundleChores)
			if err != nil {
				return 0, fmt.Errorf("encode bundle chores: %w", err)
			}
			chores = string(b)
		}
		var memberID sql.NullInt64
		if in.AssignedMemberID != nil {
			memberID = sql.NullInt64{Int64: *in.AssignedMemberID, Valid: true}
		}

		result, err := stmt.Exec(
			in.HouseholdID, in.WeekKey, in.ChoreKey, string(in.Kind), in.Title, chores,
			memberID, in.AssignedName, in.DueAt.UTC(),
		)
		if err != nil {
			return 0, fmt.Errorf("insert instance %q: %w", in.ChoreKey, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		created += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}

func (s *InstanceStore) GetByID(id int64) (*model.ChoreInstance, error) {
	row := s.db.QueryRow(`SELECT `+instanceCols+` FROM chore_instances WHERE id = ?`, id)
	c, err := scanInstance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get instance: %w", err)
	}
	return c, nil
}

func (s *InstanceStore) ListByWeek(householdID int64, weekKey string) ([]model.ChoreInstance, error) {
	rows, err := s.db.Query(
		`SELECT `+instanceCols+` FROM chore_instances WHERE household_id = ? AND week_key = ? ORDER BY kind ASC, chore_key ASC`,
		householdID, weekKey,
	)
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	defer rows.Close()

	var instances []model.ChoreInstance
	for rows.Next() {
		c, err := scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan instance: %w", err)
		}
		instances = append(instances, *c)
	}
	return instances, rows.Err()
}

// SetDone marks an instance done or not done and records the change.
func (s *InstanceStore) SetDone(id int64, done bool, changedBy string) (*model.ChoreInstance, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	var doneAt sql.NullTime
	change := model.ChangeUncompleted
	if done {
		doneAt = sql.NullTime{Time: now, Valid: true}
		change = model.ChangeCompleted
	}

	if _, err := tx.Exec(`UPDATE chore_instances SET done_at = ?, updated_at = ? WHERE id = ?`, doneAt, now, id); err != nil {
		return nil, fmt.Errorf("update done: %w", err)
	}
	if err := insertChange(tx, model.InstanceChange{InstanceID: id, ChangeType: change, ChangedBy: changedBy}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

// Reassign overrides the assignee of one instance. A nil member unassigns it.
func (s *InstanceStore) Reassign(id int64, member *model.Member, changedBy string) (*model.ChoreInstance, error) {
	current, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var memberID sql.NullInt64
	name := ""
	change := model.ChangeUnassigned
	if member != nil {
		memberID = sql.NullInt64{Int64: member.ID, Valid: true}
		name = member.Name
		change = model.ChangeAssigned
	}

	if _, err := tx.Exec(
		`UPDATE chore_instances SET assigned_member_id = ?, assigned_name = ?, updated_at = ? WHERE id = ?`,
		memberID, name, time.Now().UTC(), id,
	); err != nil {
		return nil, fmt.Errorf("reassign instance: %w", err)
	}
	if err := insertChange(tx, model.InstanceChange{
		InstanceID: id, ChangeType: change, ChangedBy: changedBy,
		OldValue: current.AssignedName, NewValue: name,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

// Swap exchanges the assignees of two instances of the same household week.
func (s *InstanceStore) Swap(aID, bID int64, changedBy string) error {
	a, err := s.GetByID(aID)
	if err != nil {
		return err
	}
	b, err := s.GetByID(bID)
	if err != nil {
		return err
	}
	if a == nil || b == nil {
		return fmt.Errorf("swap: instance not found")
	}
	if a.HouseholdID != b.HouseholdID || a.WeekKey != b.WeekKey {
		return ErrSwapAcrossWeeks
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	assign := func(target, from *model.ChoreInstance) error {
		var memberID sql.NullInt64
		if from.AssignedMemberID != nil {
			memberID = sql.NullInt64{Int64: *from.AssignedMemberID, Valid: true}
		}
		if _, err := tx.Exec(
			`UPDATE chore_instances SET assigned_member_id = ?, assigned_name = ?, updated_at = ? WHERE id = ?`,
			memberID, from.AssignedName, now, target.ID,
		); err != nil {
			return fmt.Errorf("swap instance %d: %w", target.ID, err)
		}
		return insertChange(tx, model.InstanceChange{
			InstanceID: target.ID, ChangeType: model.ChangeSwapped, ChangedBy: changedBy,
			OldValue: target.AssignedName, NewValue: from.AssignedName, SwappedWith: from.AssignedName,
		})
	}
	if err := assign(a, b); err != nil {
		return err
	}
	if err := assign(b, a); err != nil {
		return err
	}
	return tx.Commit()
}

// SetDueDate moves an instance's due date and records the change.
func (s *InstanceStore) SetDueDate(id int64, due time.Time, changedBy string) (*model.ChoreInstance, error) {
	current, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`UPDATE chore_instances SET due_at = ?, updated_at = ? WHERE id = ?`,
		due.UTC(), time.Now().UTC(), id,
	); err != nil {
		return nil, fmt.Errorf("update due date: %w", err)
	}
	if err := insertChange(tx, model.InstanceChange{
		InstanceID: id, ChangeType: model.ChangeDueDate, ChangedBy: changedBy,
		OldValue: current.DueAt.UTC().Format(time.RFC3339), NewValue: due.UTC().Format(time.RFC3339),
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func insertChange(tx *sql.Tx, c model.InstanceChange) error {
	_, err := tx.Exec(
		`INSERT INTO instance_history (instance_id, change_type, changed_by, old_value, new_value, swapped_with, changed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.InstanceID, string(c.ChangeType), c.ChangedBy, c.OldValue, c.NewValue, c.SwappedWith, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// History returns an instance's changes, oldest first.
func (s *InstanceStore) History(instanceID int64) ([]model.InstanceChange, error) {
	rows, err := s.db.Query(
		`SELECT id, instance_id, change_type, changed_by, old_value, new_value, swapped_with, changed_at
		 FROM instance_history WHERE instance_id = ? ORDER BY id ASC`,
		instanceID,
	)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var changes []model.InstanceChange
	for rows.Next() {
		var c model.InstanceChange
		var change string
		if err := rows.Scan(&c.ID, &c.InstanceID, &change, &c.ChangedBy, &c.OldValue, &c.NewValue, &c.SwappedWith, &c.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		c.ChangeType = model.ChangeType(change)
		changes = append(changes, c)
	}
	return changes, rows.Err()
}
