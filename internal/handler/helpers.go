package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/desafiados/internal/auth"
	"github.com/dukerupert/desafiados/internal/ledger"
	"github.com/dukerupert/desafiados/internal/model"
)

// Members resolves a caller's role in a group.
type Members interface {
	GetMember(ctx context.Context, groupID int64, userID string) (*model.Membership, error)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseIDParam(r *http.Request) (int64, error) {
	return parsePathInt(r, "id")
}

func parseGroupParam(r *http.Request) (int64, error) {
	return parsePathInt(r, "group_id")
}

func parsePathInt(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, strconv.ErrRange
	}
	return id, nil
}

// authorize checks that the caller belongs to groupID, and is its admin
// when adminOnly is set. It writes the error response and returns false
// when access is denied.
func authorize(w http.ResponseWriter, r *http.Request, members Members, logger *slog.Logger, groupID int64, adminOnly bool) bool {
	m, err := members.GetMember(r.Context(), groupID, auth.UserID(r.Context()))
	if err != nil {
		logger.Error("membership lookup", "error", err, "group_id", groupID)
		writeError(w, http.StatusInternalServerError, "failed to check membership")
		return false
	}
	if m == nil {
		writeError(w, http.StatusForbidden, "not a member of this group")
		return false
	}
	if adminOnly && !m.IsAdmin() {
		writeError(w, http.StatusForbidden, "group admin required")
		return false
	}
	return true
}

// writeLedgerError maps ledger errors to HTTP responses.
func writeLedgerError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var (
		notFound     *ledger.NotFoundError
		inactive     *ledger.RewardInactiveError
		insufficient *ledger.InsufficientBalanceError
		membership   *ledger.MembershipRequiredError
		transient    *ledger.TransientError
		persistence  *ledger.PersistenceError
	)
	switch {
	case errors.As(err, &persistence):
		logger.Error("ledger persistence failure", "error", err, "restored", persistence.Restored)
		writeError(w, http.StatusInternalServerError, "failed to record ledger change")
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":    insufficient.Error(),
			"current":  insufficient.Current,
			"required": insufficient.Required,
		})
	case errors.As(err, &inactive):
		writeError(w, http.StatusConflict, inactive.Error())
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &membership):
		writeError(w, http.StatusUnprocessableEntity, membership.Error())
	case errors.Is(err, ledger.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, ledger.ErrInvalidAmount.Error())
	case errors.Is(err, ledger.ErrBalanceLimit):
		writeError(w, http.StatusUnprocessableEntity, ledger.ErrBalanceLimit.Error())
	case errors.As(err, &transient):
		logger.Warn("ledger transient failure", "error", err)
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "temporarily unavailable, try again")
	default:
		logger.Error("ledger operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
