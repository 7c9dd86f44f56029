package store

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/uptaskhq/uptask-server/internal/model"
)

// tokenTTL is how long a confirmation or reset code stays redeemable.
const tokenTTL = 15 * time.Minute

type TokenStore struct {
	db *sql.DB
}

func NewTokenStore(db *sql.DB) *TokenStore {
	return &TokenStore{db: db}
}

func scanToken(scanner interface{ Scan(...any) error }) (*model.Token, error) {
	var t model.Token
	err := scanner.Scan(&t.ID, &t.Code, &t.UserID, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

const tokenCols = `id, code, user_id, expires_at, created_at`

// generateCode returns a 6-digit numeric code (100000–999999).
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Create issues a new code for the account with a 15-minute expiry. Multiple
// outstanding codes per account are allowed.
func (s *TokenStore) Create(userID int64) (*model.Token, error) {
	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().UTC().Add(tokenTTL)

	result, err := s.db.Exec(
		`INSERT INTO tokens (code, user_id, expires_at) VALUES (?, ?, ?)`,
		code, userID, expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert token: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+tokenCols+` FROM tokens WHERE id = ?`, id)
	return scanToken(row)
}

// GetByCode returns the oldest unexpired token matching the code, or nil.
// Expiry is enforced here so an expired code is never treated as valid even
// before the sweep removes it.
func (s *TokenStore) GetByCode(code string) (*model.Token, error) {
	row := s.db.QueryRow(
		`SELECT `+tokenCols+` FROM tokens WHERE code = ? AND expires_at > datetime('now') ORDER BY created_at ASC LIMIT 1`,
		code,
	)
	t, err := scanToken(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get token by code: %w", err)
	}
	return t, nil
}

// Delete consumes a token. Redeemed codes are single-use.
func (s *TokenStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM tokens WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// CountByUser returns the number of outstanding unexpired tokens for an account.
func (s *TokenStore) CountByUser(userID int64) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM tokens WHERE user_id = ? AND expires_at > datetime('now')`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count tokens: %w", err)
	}
	return count, nil
}

// DeleteExpired purges tokens past their expiry and returns how many were removed.
func (s *TokenStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM tokens WHERE expires_at <= datetime('now')`)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
