package security

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPasswordWithCost("password123", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "password123") {
		t.Fatalf("expected password to match")
	}
	if CheckPassword(hash, "password124") {
		t.Fatalf("expected mismatch")
	}
	if CheckPassword("", "password123") {
		t.Fatalf("empty hash must never match")
	}
	if _, err := HashPassword("   "); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}
