package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/uptaskhq/uptask-server/internal/model"
)

// ErrDuplicateEmail is returned when an insert or update collides with an
// existing account's email. The unique index is the authority; callers that
// pre-check still race and must handle this.
var ErrDuplicateEmail = errors.New("email already registered")

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := scanner.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Confirmed, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const userCols = `id, name, email, password_hash, confirmed, created_at, updated_at`

// Create inserts an unconfirmed account. Email is normalized to lower case;
// the schema's unique constraint closes the check-then-insert race.
func (s *UserStore) Create(name, email, passwordHash string) (*model.User, error) {
	result, err := s.db.Exec(
		`INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?)`,
		name, strings.ToLower(email), passwordHash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE email = ?`, strings.ToLower(email))
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// GetProfile returns the id/name/email projection, or nil if not found.
func (s *UserStore) GetProfile(id int64) (*model.Profile, error) {
	var p model.Profile
	err := s.db.QueryRow(`SELECT id, name, email FROM users WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// FindProfileByEmail returns the projection for a team lookup, or nil.
func (s *UserStore) FindProfileByEmail(email string) (*model.Profile, error) {
	var p model.Profile
	err := s.db.QueryRow(`SELECT id, name, email FROM users WHERE email = ?`, strings.ToLower(email)).
		Scan(&p.ID, &p.Name, &p.Email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find profile by email: %w", err)
	}
	return &p, nil
}

// Confirm flips the account's confirmed flag. It is a no-op for an already
// confirmed account.
func (s *UserStore) Confirm(id int64) error {
	_, err := s.db.Exec(
		`UPDATE users SET confirmed = 1, updated_at = datetime('now') WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("confirm user: %w", err)
	}
	return nil
}

func (s *UserStore) UpdateProfile(id int64, name, email string) (*model.User, error) {
	_, err := s.db.Exec(
		`UPDATE users SET name = ?, email = ?, updated_at = datetime('now') WHERE id = ?`,
		name, strings.ToLower(email), id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) UpdatePassword(id int64, passwordHash string) error {
	_, err := s.db.Exec(
		`UPDATE users SET password_hash = ?, updated_at = datetime('now') WHERE id = ?`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
