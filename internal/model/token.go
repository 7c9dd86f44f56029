package model

import "time"

// Token is a short-lived confirmation or password-reset code. A token is
// valid only while it exists and expires_at is in the future; redemption
// deletes it.
type Token struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
