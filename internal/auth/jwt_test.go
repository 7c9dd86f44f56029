package auth

import (
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer([]byte("super-secret"), time.Hour)

	credential, err := issuer.Issue(42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	userID, err := issuer.Verify(credential)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != 42 {
		t.Errorf("user id = %d, want 42", userID)
	}
}

func TestVerifyExpired(t *testing.T) {
	t.Parallel()

	issuer := &Issuer{secret: []byte("secret"), ttl: -time.Second}

	credential, err := issuer.Issue(1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := issuer.Verify(credential); err != ErrInvalidCredential {
		t.Errorf("err = %v, want ErrInvalidCredential", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	t.Parallel()

	credential, err := NewIssuer([]byte("right-secret"), time.Hour).Issue(7)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := NewIssuer([]byte("wrong-secret"), time.Hour).Verify(credential); err != ErrInvalidCredential {
		t.Errorf("err = %v, want ErrInvalidCredential", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer([]byte("secret"), time.Hour)
	if _, err := issuer.Verify("not.a.jwt"); err != ErrInvalidCredential {
		t.Errorf("err = %v, want ErrInvalidCredential", err)
	}
}

func TestDefaultTTL(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer([]byte("secret"), 0)
	if issuer.ttl != DefaultSessionTTL {
		t.Errorf("ttl = %v, want %v", issuer.ttl, DefaultSessionTTL)
	}
}
