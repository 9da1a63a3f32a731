package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/desafiados/internal/ledger"
)

func TestWriteLedgerError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	transient := &ledger.TransientError{Op: "redeem", Err: errors.New("database is locked")}

	tests := []struct {
		name       string
		err        error
		status     int
		retryAfter bool
	}{
		{"not found", &ledger.NotFoundError{Entity: "reward", ID: "7"}, http.StatusNotFound, false},
		{"inactive", &ledger.RewardInactiveError{RewardID: 7}, http.StatusConflict, false},
		{"insufficient", &ledger.InsufficientBalanceError{Current: 10, Required: 60}, http.StatusConflict, false},
		{"membership", &ledger.MembershipRequiredError{UserID: "bob", GroupID: 1}, http.StatusUnprocessableEntity, false},
		{"invalid amount", fmt.Errorf("award points: %w", ledger.ErrInvalidAmount), http.StatusBadRequest, false},
		{"balance limit", fmt.Errorf("award points: %w", ledger.ErrBalanceLimit), http.StatusUnprocessableEntity, false},
		{"transient", transient, http.StatusServiceUnavailable, true},
		{"restored persistence", &ledger.PersistenceError{Op: "redeem", Err: transient, Restored: true}, http.StatusInternalServerError, false},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeLedgerError(rec, logger, tt.err)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := rec.Header().Get("Retry-After") != ""; got != tt.retryAfter {
				t.Errorf("Retry-After present = %v, want %v", got, tt.retryAfter)
			}
		})
	}
}

func TestWriteLedgerErrorInsufficientBody(t *testing.T) {
	rec := httptest.NewRecorder()
	writeLedgerError(rec, slog.Default(), &ledger.InsufficientBalanceError{Current: 50, Required: 60})

	var body struct {
		Error    string `json:"error"`
		Current  int    `json:"current"`
		Required int    `json:"required"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Current != 50 || body.Required != 60 {
		t.Errorf("body = %+v, want current 50 required 60", body)
	}
	if body.Error != "insufficient points: you have 50 points but need 60 points" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestParseIDParam(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{"42", true},
		{"0", false},
		{"-3", false},
		{"abc", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		req.SetPathValue("id", tt.value)
		_, err := parseIDParam(req)
		if (err == nil) != tt.ok {
			t.Errorf("parseIDParam(%q) err = %v, want ok=%v", tt.value, err, tt.ok)
		}
	}
}
