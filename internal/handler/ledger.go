package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dukerupert/desafiados/internal/auth"
	"github.com/dukerupert/desafiados/internal/ledger"
	"github.com/dukerupert/desafiados/internal/model"
	"github.com/dukerupert/desafiados/internal/store"
	"github.com/dukerupert/desafiados/internal/websocket"
)

type LedgerHandler struct {
	ledger     *ledger.Service
	members    Members
	rewards    *store.RewardStore
	challenges *store.ChallengeStore
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewLedgerHandler(svc *ledger.Service, members Members, rs *store.RewardStore, cs *store.ChallengeStore, hub *websocket.Hub, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{ledger: svc, members: members, rewards: rs, challenges: cs, hub: hub, logger: logger}
}

func (h *LedgerHandler) broadcast(groupID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(groupID, msg)
	}
}

func (h *LedgerHandler) AvailableRewards(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseGroupParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}

	rewards, err := h.ledger.GetAvailableRewards(r.Context(), auth.UserID(r.Context()), groupID)
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rewards)
}

func (h *LedgerHandler) PointSummary(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseGroupParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}

	summary, err := h.ledger.GetPointSummary(r.Context(), auth.UserID(r.Context()), groupID)
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *LedgerHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseGroupParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}
	if !authorize(w, r, h.members, h.logger, groupID, false) {
		return
	}

	board, err := h.ledger.GetLeaderboard(r.Context(), groupID)
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *LedgerHandler) GroupStats(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseGroupParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}
	if !authorize(w, r, h.members, h.logger, groupID, false) {
		return
	}

	stats, err := h.ledger.GetGroupStatistics(r.Context(), groupID)
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Award grants a challenge's points directly, outside the submission flow.
// The credited amount is always the challenge's own value; an explicit
// amount in the body must match it.
func (h *LedgerHandler) Award(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseGroupParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}
	if !authorize(w, r, h.members, h.logger, groupID, true) {
		return
	}

	var req struct {
		UserID      string `json:"user_id"`
		ChallengeID int64  `json:"challenge_id"`
		Amount      *int   `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	challenge, err := h.challenges.GetByID(r.Context(), req.ChallengeID)
	if err != nil {
		h.logger.Error("get challenge", "error", err, "challenge_id", req.ChallengeID)
		writeError(w, http.StatusInternalServerError, "failed to get challenge")
		return
	}
	if challenge == nil || challenge.GroupID != groupID {
		writeError(w, http.StatusNotFound, "challenge not found")
		return
	}

	if req.Amount != nil && *req.Amount != challenge.Points {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("amount must match the challenge points (%d)", challenge.Points))
		return
	}

	award, err := h.ledger.AwardPoints(r.Context(), req.UserID, groupID, challenge.Points, ledger.AwardReason{ChallengeID: challenge.ID})
	var dup *ledger.DuplicateAwardError
	if errors.As(err, &dup) {
		writeJSON(w, http.StatusOK, map[string]any{"already_awarded": true, "award": dup.Award})
		return
	}
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}

	h.broadcast(groupID, websocket.NewMessage("award", "created", award.ID, map[string]any{
		"user_id": award.UserID,
		"points":  award.Points,
	}))
	writeJSON(w, http.StatusCreated, map[string]any{"already_awarded": false, "award": award})
}

func (h *LedgerHandler) CanRedeem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	check, err := h.ledger.CanRedeem(r.Context(), auth.UserID(r.Context()), id)
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}

func (h *LedgerHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	userID := auth.UserID(r.Context())
	redemption, err := h.ledger.Redeem(r.Context(), userID, id)
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}

	h.broadcast(redemption.GroupID, websocket.NewMessage("redemption", "created", redemption.ID, map[string]any{
		"user_id":      userID,
		"reward_id":    redemption.RewardID,
		"points_spent": redemption.PointsSpent,
	}))
	writeJSON(w, http.StatusCreated, redemption)
}

// RewardRedemptions lists every redemption of a reward for the group admin.
func (h *LedgerHandler) RewardRedemptions(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	reward, err := h.rewards.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get reward", "error", err, "reward_id", id)
		writeError(w, http.StatusInternalServerError, "failed to get reward")
		return
	}
	if reward == nil {
		writeError(w, http.StatusNotFound, "reward not found")
		return
	}
	if !authorize(w, r, h.members, h.logger, reward.GroupID, true) {
		return
	}

	list, err := h.ledger.GetRewardRedemptions(r.Context(), id)
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// History returns the caller's redemptions, optionally limited to one group.
func (h *LedgerHandler) History(w http.ResponseWriter, r *http.Request) {
	var groupID *int64
	if raw := r.URL.Query().Get("group_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid group_id")
			return
		}
		groupID = &id
	}

	history, err := h.ledger.GetRedemptionHistory(r.Context(), auth.UserID(r.Context()), groupID)
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}
	if history == nil {
		history = []model.Redemption{}
	}
	writeJSON(w, http.StatusOK, history)
}
