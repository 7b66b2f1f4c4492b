package auth

import "testing"

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("secret-pw", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "secret-pw" {
		t.Fatal("password stored in the clear")
	}
	if err := ComparePassword(hash, "secret-pw"); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if err := ComparePassword(hash, "wrong"); err == nil {
		t.Fatal("wrong password accepted")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("abcdef", 6); err != nil {
		t.Fatalf("valid password rejected: %v", err)
	}
	if err := ValidatePassword("abc", 6); err == nil {
		t.Fatal("short password accepted")
	}
	// Length is the only rule; no character classes enforced.
	if err := ValidatePassword("aaaaaa", 6); err != nil {
		t.Fatalf("plain password rejected: %v", err)
	}
	if err := ValidatePassword("abcde", 0); err == nil {
		t.Fatal("default minimum not applied")
	}
}
