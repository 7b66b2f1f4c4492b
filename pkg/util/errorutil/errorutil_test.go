package errorutil

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestToDomainErrorPassesThrough(t *testing.T) {
	err := NewIllegalTransition("task already resolved")
	de := ToDomainError(err)
	if de.Code != "ILLEGAL_TRANSITION" {
		t.Fatalf("code = %s", de.Code)
	}
	if de.HTTPStatus != http.StatusConflict {
		t.Fatalf("status = %d", de.HTTPStatus)
	}
}

func TestToDomainErrorMapsNoRows(t *testing.T) {
	de := ToDomainError(pgx.ErrNoRows)
	if de.Code != "NOT_FOUND" {
		t.Fatalf("code = %s, want NOT_FOUND", de.Code)
	}
	de = ToDomainError(errors.New("connection refused"))
	if de.Code != "INTERNAL_ERROR" {
		t.Fatalf("code = %s, want INTERNAL_ERROR", de.Code)
	}
	if de.Message != "internal server error" {
		t.Fatalf("internal detail leaked: %q", de.Message)
	}
}

func TestToDomainErrorUnwrapsWrapped(t *testing.T) {
	wrapped := NewUnknownVisitor("badge-1")
	de := ToDomainError(wrapped)
	if de.Code != "UNKNOWN_VISITOR" {
		t.Fatalf("code = %s", de.Code)
	}
	if de.HTTPStatus != http.StatusNotFound {
		t.Fatalf("status = %d", de.HTTPStatus)
	}
	if de.Details["hardware_id"] != "badge-1" {
		t.Fatalf("details = %v", de.Details)
	}
}

func TestStatusCodes(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{NewValidationError("bad", nil), http.StatusBadRequest},
		{NewUnauthorized("no"), http.StatusUnauthorized},
		{NewForbidden("no"), http.StatusForbidden},
		{NewNotFound("thing", nil), http.StatusNotFound},
		{NewConflict("dup", nil), http.StatusConflict},
		{NewInUse("busy", nil), http.StatusConflict},
		{NewInvalidToken(), http.StatusBadRequest},
		{NewAlreadyConsumed(), http.StatusConflict},
		{NewInternalError(nil), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		de := ToDomainError(tc.err)
		if de.HTTPStatus != tc.status {
			t.Errorf("%s: status = %d, want %d", de.Code, de.HTTPStatus, tc.status)
		}
	}
}
