package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/chorewheel/internal/household"
	"github.com/dukerupert/chorewheel/internal/model"
)

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func scanHousehold(scanner interface{ Scan(...any) error }) (*model.Household, error) {
	var h model.Household
	err := scanner.Scan(
		&h.ID, &h.Code, &h.Name, &h.Timezone, &h.AnchorDate, &h.CycleLength,
		&h.HasAdminPIN, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

const householdCols = `id, code, name, timezone, anchor_date, cycle_length, admin_pin IS NOT NULL, created_at, updated_at`

// Create inserts a household under a freshly generated join code, retrying on
// collisions up to household.MaxCodeAttempts times. memberNames are added in
// rotation order in the same transaction, so a failure leaves nothing behind.
func (s *HouseholdStore) Create(name, timezone, anchorDate string, cycleLength int, adminPINHash string, memberNames ...string) (*model.Household, error) {
	for attempt := 0; attempt < household.MaxCodeAttempts; attempt++ {
		code, err := household.NewCode()
		if err != nil {
			return nil, err
		}
		exists, err := s.CodeExists(code)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		return s.createWithCode(code, name, timezone, anchorDate, cycleLength, adminPINHash, memberNames)
	}
	return nil, household.ErrCodeExhausted
}

func (s *HouseholdStore) createWithCode(code, name, timezone, anchorDate string, cycleLength int, adminPINHash string, memberNames []string) (*model.Household, error) {
	var pin sql.NullString
	if adminPINHash != "" {
		pin = sql.NullString{String: adminPINHash, Valid: true}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO households (code, name, timezone, anchor_date, cycle_length, admin_pin) VALUES (?, ?, ?, ?, ?, ?)`,
		code, name, timezone, anchorDate, cycleLength, pin,
	)
	if err != nil {
		return nil, fmt.Errorf("insert household: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	for i, n := range memberNames {
		if _, err := insertMember(tx, id, n, i); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *HouseholdStore) CodeExists(code string) (bool, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM households WHERE code = ?`, code).Scan(&count); err != nil {
		return false, fmt.Errorf("check code exists: %w", err)
	}
	return count > 0, nil
}

func (s *HouseholdStore) GetByID(id int64) (*model.Household, error) {
	row := s.db.QueryRow(`SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

func (s *HouseholdStore) GetByCode(code string) (*model.Household, error) {
	row := s.db.QueryRow(`SELECT `+householdCols+` FROM households WHERE code = ?`, household.NormalizeCode(code))
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household by code: %w", err)
	}
	return h, nil
}

// ListIDs returns every household id, oldest first.
func (s *HouseholdStore) ListIDs() ([]int64, error) {
	rows, err := s.db.Query(`SELECT id FROM households ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list household ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan household id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Update edits household metadata. It never touches the schedule anchor.
func (s *HouseholdStore) Update(id int64, name, timezone string) (*model.Household, error) {
	_, err := s.db.Exec(
		`UPDATE households SET name = ?, timezone = ?, updated_at = ? WHERE id = ?`,
		name, timezone, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update household: %w", err)
	}
	return s.GetByID(id)
}

// SetAnchor moves the rotation origin and cycle length. This reassigns every
// past and future week, so callers gate it behind the admin PIN.
func (s *HouseholdStore) SetAnchor(id int64, anchorDate string, cycleLength int) (*model.Household, error) {
	_, err := s.db.Exec(
		`UPDATE households SET anchor_date = ?, cycle_length = ?, updated_at = ? WHERE id = ?`,
		anchorDate, cycleLength, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("set anchor: %w", err)
	}
	return s.GetByID(id)
}

func (s *HouseholdStore) SetAdminPIN(id int64, hashedPIN string) error {
	_, err := s.db.Exec(`UPDATE households SET admin_pin = ? WHERE id = ?`, hashedPIN, id)
	if err != nil {
		return fmt.Errorf("set admin pin: %w", err)
	}
	return nil
}

func (s *HouseholdStore) GetAdminPINHash(id int64) (string, error) {
	var pin sql.NullString
	err := s.db.QueryRow(`SELECT admin_pin FROM households WHERE id = ?`, id).Scan(&pin)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("household not found")
	}
	if err != nil {
		return "", fmt.Errorf("query admin pin: %w", err)
	}
	if !pin.Valid {
		return "", nil
	}
	return pin.String, nil
}

func (s *HouseholdStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM households WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete household: %w", err)
	}
	return nil
}
