package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/chorewheel/internal/model"
	"github.com/google/uuid"
)

type MemberStore struct {
	db *sql.DB
}

func NewMemberStore(db *sql.DB) *MemberStore {
	return &MemberStore{db: db}
}

func scanMember(scanner interface{ Scan(...any) error }) (*model.Member, error) {
	var m model.Member
	err := scanner.Scan(&m.ID, &m.HouseholdID, &m.Key, &m.Name, &m.SortOrder, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const memberCols = `id, household_id, key, name, sort_order, created_at, updated_at`

// Create appends a member to the end of the household's rotation order.
func (s *MemberStore) Create(householdID int64, name string) (*model.Member, error) {
	var maxOrder int
	err := s.db.QueryRow(
		`SELECT COALESCE(MAX(sort_order), -1) FROM members WHERE household_id = ?`, householdID,
	).Scan(&maxOrder)
	if err != nil {
		return nil, fmt.Errorf("query max sort_order: %w", err)
	}

	id, err := insertMember(s.db, householdID, name, maxOrder+1)
	if err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertMember(ex execer, householdID int64, name string, sortOrder int) (int64, error) {
	result, err := ex.Exec(
		`INSERT INTO members (household_id, key, name, sort_order) VALUES (?, ?, ?, ?)`,
		householdID, uuid.NewString(), name, sortOrder,
	)
	if err != nil {
		return 0, fmt.Errorf("insert member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// List returns members in rotation order.
func (s *MemberStore) List(householdID int64) ([]model.Member, error) {
	rows, err := s.db.Query(
		`SELECT `+memberCols+` FROM members WHERE household_id = ? ORDER BY sort_order ASC, id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *MemberStore) GetByID(id int64) (*model.Member, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *MemberStore) GetByKey(key string) (*model.Member, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM members WHERE key = ?`, key)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member by key: %w", err)
	}
	return m, nil
}

// Rename changes a member's display name and carries it onto the chore
// instances already assigned to them. Rotation order is untouched.
func (s *MemberStore) Rename(id int64, name string) (*model.Member, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.Exec(`UPDATE members SET name = ?, updated_at = ? WHERE id = ?`, name, now, id); err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	if _, err := tx.Exec(
		`UPDATE chore_instances SET assigned_name = ?, updated_at = ? WHERE assigned_member_id = ?`,
		name, now, id,
	); err != nil {
		return nil, fmt.Errorf("propagate member name: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *MemberStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}

func (s *MemberStore) NameExists(householdID int64, name string, excludeID int64) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM members WHERE household_id = ? AND name = ? COLLATE NOCASE AND id != ?`,
		householdID, name, excludeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check name exists: %w", err)
	}
	return count > 0, nil
}

func (s *MemberStore) Count(householdID int64) (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM members WHERE household_id = ?`, householdID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return count, nil
}
