package store

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/dukerupert/chorewheel/internal/model"
	"github.com/dukerupert/chorewheel/internal/rotation"
	"github.com/google/uuid"
)

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

// --- Common-area chores ---

func scanCommonChore(scanner interface{ Scan(...any) error }) (*model.CommonChore, error) {
	var c model.CommonChore
	if err := scanner.Scan(&c.ID, &c.HouseholdID, &c.Title, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

const commonChoreCols = `id, household_id, title, created_at`

func (s *ChoreStore) CreateCommon(householdID int64, title string) (*model.CommonChore, error) {
	result, err := s.db.Exec(
		`INSERT INTO common_chores (household_id, title) VALUES (?, ?)`,
		householdID, title,
	)
	if err != nil {
		return nil, fmt.Errorf("insert common chore: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetCommonByID(id)
}

func (s *ChoreStore) GetCommonByID(id int64) (*model.CommonChore, error) {
	row := s.db.QueryRow(`SELECT `+commonChoreCols+` FROM common_chores WHERE id = ?`, id)
	c, err := scanCommonChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get common chore: %w", err)
	}
	return c, nil
}

func (s *ChoreStore) ListCommon(householdID int64) ([]model.CommonChore, error) {
	rows, err := s.db.Query(
		`SELECT `+commonChoreCols+` FROM common_chores WHERE household_id = ? ORDER BY title ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list common chores: %w", err)
	}
	defer rows.Close()

	var chores []model.CommonChore
	for rows.Next() {
		c, err := scanCommonChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan common chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

// CommonTitles returns the household's common-area chore titles.
func (s *ChoreStore) CommonTitles(householdID int64) ([]string, error) {
	chores, err := s.ListCommon(householdID)
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(chores))
	for _, c := range chores {
		titles = append(titles, c.Title)
	}
	return titles, nil
}

// TitleInUse reports whether title names a common chore or a sole task in the
// household. Schedules are keyed by title, so the two sets must not overlap.
func (s *ChoreStore) TitleInUse(householdID int64, title string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT (SELECT COUNT(*) FROM common_chores WHERE household_id = ? AND title = ?)
		      + (SELECT COUNT(*) FROM sole_tasks WHERE household_id = ? AND title = ?)`,
		householdID, title, householdID, title,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check title in use: %w", err)
	}
	return count > 0, nil
}

func (s *ChoreStore) DeleteCommon(id int64) error {
	_, err := s.db.Exec(`DELETE FROM common_chores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete common chore: %w", err)
	}
	return nil
}

// --- Sole-responsibility tasks ---

const soleTaskCols = `id, household_id, key, title, created_at`

// CreateSoleTask adds a task rotating among memberIDs in the given order.
// Repeated ids keep their first position.
func (s *ChoreStore) CreateSoleTask(householdID int64, title string, memberIDs []int64) (*model.SoleTask, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO sole_tasks (household_id, key, title) VALUES (?, ?, ?)`,
		householdID, uuid.NewString(), title,
	)
	if err != nil {
		return nil, fmt.Errorf("insert sole task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if err := setResponsible(tx, id, memberIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetSoleTask(id)
}

// SetResponsible replaces the responsible members of a task.
func (s *ChoreStore) SetResponsible(taskID int64, memberIDs []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := setResponsible(tx, taskID, memberIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// LegacyOrder converts an older per-week schedule into an ordered member list.
// Week numbers become rotation indexes first; members are then ordered by
// index so the rotation resumes where it was.
func LegacyOrder(slots []model.LegacySlot, cycleLength int) ([]int64, error) {
	type positioned struct {
		memberID int64
		index    int
	}
	ordered := make([]positioned, 0, len(slots))
	for i, slot := range slots {
		index := i
		switch {
		case slot.RotationIndex != nil:
			index = *slot.RotationIndex
		case slot.Week != nil:
			idx, err := rotation.FromWeekNumber(*slot.Week, cycleLength)
			if err != nil {
				return nil, fmt.Errorf("convert week %d: %w", *slot.Week, err)
			}
			index = idx
		}
		ordered = append(ordered, positioned{memberID: slot.MemberID, index: index})
	}
	sort.SliceStable(ordered, func(a, b int) bool { return ordered[a].index < ordered[b].index })

	ids := make([]int64, 0, len(ordered))
	for _, p := range ordered {
		ids = append(ids, p.memberID)
	}
	return ids, nil
}

func setResponsible(tx *sql.Tx, taskID int64, memberIDs []int64) error {
	if _, err := tx.Exec(`DELETE FROM sole_task_members WHERE sole_task_id = ?`, taskID); err != nil {
		return fmt.Errorf("clear responsible members: %w", err)
	}

	seen := make(map[int64]bool, len(memberIDs))
	position := 0
	for _, id := range memberIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, err := tx.Exec(
			`INSERT INTO sole_task_members (sole_task_id, member_id, position) VALUES (?, ?, ?)`,
			taskID, id, position,
		); err != nil {
			return fmt.Errorf("insert responsible member %d: %w", id, err)
		}
		position++
	}
	return nil
}

func (s *ChoreStore) GetSoleTask(id int64) (*model.SoleTask, error) {
	var t model.SoleTask
	err := s.db.QueryRow(`SELECT `+soleTaskCols+` FROM sole_tasks WHERE id = ?`, id).
		Scan(&t.ID, &t.HouseholdID, &t.Key, &t.Title, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sole task: %w", err)
	}

	responsible, err := s.responsible(t.ID)
	if err != nil {
		return nil, err
	}
	t.Responsible = responsible
	return &t, nil
}

// ListSoleTasks returns the household's tasks with responsible members in
// rotation order.
func (s *ChoreStore) ListSoleTasks(householdID int64) ([]model.SoleTask, error) {
	rows, err := s.db.Query(
		`SELECT `+soleTaskCols+` FROM sole_tasks WHERE household_id = ? ORDER BY id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list sole tasks: %w", err)
	}

	var tasks []model.SoleTask
	for rows.Next() {
		var t model.SoleTask
		if err := rows.Scan(&t.ID, &t.HouseholdID, &t.Key, &t.Title, &t.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan sole task: %w", err)
		}
		tasks = append(tasks, t)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}

	// Loaded after closing rows: in-memory databases run on a single connection.
	for i := range tasks {
		responsible, err := s.responsible(tasks[i].ID)
		if err != nil {
			return nil, err
		}
		tasks[i].Responsible = responsible
	}
	return tasks, nil
}

func (s *ChoreStore) responsible(taskID int64) ([]model.Member, error) {
	rows, err := s.db.Query(
		`SELECT m.id, m.household_id, m.key, m.name, m.sort_order, m.created_at, m.updated_at
		 FROM sole_task_members stm
		 JOIN members m ON m.id = stm.member_id
		 WHERE stm.sole_task_id = ?
		 ORDER BY stm.position ASC`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("list responsible members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan responsible member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *ChoreStore) DeleteSoleTask(id int64) error {
	_, err := s.db.Exec(`DELETE FROM sole_tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete sole task: %w", err)
	}
	return nil
}
