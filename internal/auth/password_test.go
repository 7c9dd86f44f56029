package auth

import "testing"

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("Password1!")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "Password1!" {
		t.Fatal("hash equals plaintext")
	}
	if !CheckPassword("Password1!", hash) {
		t.Error("expected matching password to verify")
	}
}

func TestCheckPasswordMismatch(t *testing.T) {
	hash, err := HashPassword("Password1!")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if CheckPassword("Password2!", hash) {
		t.Error("expected non-matching password to fail")
	}
}

func TestHashPasswordSalted(t *testing.T) {
	h1, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	h2, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if h1 == h2 {
		t.Error("expected distinct salts to produce distinct digests")
	}
}
