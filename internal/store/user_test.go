package store

import (
	"errors"
	"testing"

	"github.com/uptaskhq/uptask-server/internal/database"
)

func setupUserTestDB(t *testing.T) *UserStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserStore(db)
}

func TestUserCreate(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.Create("Alice", "alice@example.com", "hashed-password")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Errorf("email = %q, want %q", u.Email, "alice@example.com")
	}
	if u.Confirmed {
		t.Error("expected new account to be unconfirmed")
	}
	if u.ID == 0 {
		t.Error("expected non-zero ID")
	}
}

func TestUserCreateNormalizesEmail(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.Create("Alice", "Alice@Example.COM", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Errorf("email = %q, want lower-cased", u.Email)
	}
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	us := setupUserTestDB(t)

	if _, err := us.Create("Alice", "alice@example.com", "hash"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	_, err := us.Create("Alice2", "ALICE@example.com", "hash")
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestUserUpdateProfileDuplicateEmail(t *testing.T) {
	us := setupUserTestDB(t)

	if _, err := us.Create("Alice", "alice@example.com", "hash"); err != nil {
		t.Fatalf("create alice: %v", err)
	}
	bob, err := us.Create("Bob", "bob@example.com", "hash")
	if err != nil {
		t.Fatalf("create bob: %v", err)
	}

	_, err = us.UpdateProfile(bob.ID, "Bob", "alice@example.com")
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestUserGetByEmailCaseInsensitive(t *testing.T) {
	us := setupUserTestDB(t)

	if _, err := us.Create("Alice", "alice@example.com", "hash"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	u, err := us.GetByEmail("ALICE@EXAMPLE.COM")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if u == nil {
		t.Fatal("expected user, got nil")
	}
}

func TestUserGetByEmailNotFound(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.GetByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if u != nil {
		t.Error("expected nil for nonexistent email")
	}
}

func TestUserConfirm(t *testing.T) {
	us := setupUserTestDB(t)

	created, err := us.Create("Alice", "alice@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	if err := us.Confirm(created.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	u, err := us.GetByID(created.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if !u.Confirmed {
		t.Error("expected confirmed after Confirm")
	}
}

func TestUserGetProfile(t *testing.T) {
	us := setupUserTestDB(t)

	created, err := us.Create("Alice", "alice@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	p, err := us.GetProfile(created.ID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if p.Name != "Alice" || p.Email != "alice@example.com" {
		t.Errorf("profile = %+v", p)
	}
}

func TestUserUpdateProfile(t *testing.T) {
	us := setupUserTestDB(t)

	created, err := us.Create("Alice", "alice@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	updated, err := us.UpdateProfile(created.ID, "Alice B", "aliceb@example.com")
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Name != "Alice B" {
		t.Errorf("name = %q, want %q", updated.Name, "Alice B")
	}
	if updated.Email != "aliceb@example.com" {
		t.Errorf("email = %q, want %q", updated.Email, "aliceb@example.com")
	}
}

func TestUserUpdatePassword(t *testing.T) {
	us := setupUserTestDB(t)

	created, err := us.Create("Alice", "alice@example.com", "old-hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	if err := us.UpdatePassword(created.ID, "new-hash"); err != nil {
		t.Fatalf("update password: %v", err)
	}

	u, err := us.GetByID(created.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if u.PasswordHash != "new-hash" {
		t.Errorf("password hash = %q, want %q", u.PasswordHash, "new-hash")
	}
}
