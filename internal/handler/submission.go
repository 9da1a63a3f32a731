package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dukerupert/desafiados/internal/ledger"
	"github.com/dukerupert/desafiados/internal/model"
	"github.com/dukerupert/desafiados/internal/store"
	"github.com/dukerupert/desafiados/internal/websocket"
)

// awardRetries bounds retries of a transient failure while crediting an
// approved submission.
const awardRetries = 3

// SubmissionHandler reviews challenge submissions. Approval is the single
// trigger that credits points through the ledger.
type SubmissionHandler struct {
	challenges *store.ChallengeStore
	awards     *store.AwardStore
	members    Members
	ledger     *ledger.Service
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewSubmissionHandler(cs *store.ChallengeStore, as *store.AwardStore, members Members, svc *ledger.Service, hub *websocket.Hub, logger *slog.Logger) *SubmissionHandler {
	return &SubmissionHandler{challenges: cs, awards: as, members: members, ledger: svc, hub: hub, logger: logger}
}

func (h *SubmissionHandler) broadcast(groupID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(groupID, msg)
	}
}

// load fetches the submission and its challenge and checks the caller
// administers the challenge's group.
func (h *SubmissionHandler) load(w http.ResponseWriter, r *http.Request) (*model.Submission, *model.Challenge, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, nil, false
	}

	sub, err := h.challenges.GetSubmission(r.Context(), id)
	if err != nil {
		h.logger.Error("get submission", "error", err, "submission_id", id)
		writeError(w, http.StatusInternalServerError, "failed to get submission")
		return nil, nil, false
	}
	if sub == nil {
		writeError(w, http.StatusNotFound, "submission not found")
		return nil, nil, false
	}

	challenge, err := h.challenges.GetByID(r.Context(), sub.ChallengeID)
	if err != nil {
		h.logger.Error("get challenge", "error", err, "challenge_id", sub.ChallengeID)
		writeError(w, http.StatusInternalServerError, "failed to get challenge")
		return nil, nil, false
	}
	if challenge == nil {
		writeError(w, http.StatusNotFound, "challenge not found")
		return nil, nil, false
	}
	if !authorize(w, r, h.members, h.logger, challenge.GroupID, true) {
		return nil, nil, false
	}
	return sub, challenge, true
}

// Approve marks the submission approved and credits the challenge's points
// once. Approving again is safe and reports already_awarded.
func (h *SubmissionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	sub, challenge, ok := h.load(w, r)
	if !ok {
		return
	}

	approved, err := h.challenges.SetApproval(r.Context(), sub.ID, true, challenge.Points)
	if err != nil {
		h.logger.Error("approve submission", "error", err, "submission_id", sub.ID)
		writeError(w, http.StatusInternalServerError, "failed to approve submission")
		return
	}

	resp := map[string]any{"submission": approved, "awarded": false, "already_awarded": false}
	if challenge.Points == 0 {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	var award *model.Award
	err = ledger.Retry(r.Context(), awardRetries, func(ctx context.Context) error {
		var err error
		award, err = h.ledger.AwardPoints(ctx, sub.UserID, challenge.GroupID, challenge.Points, ledger.AwardReason{ChallengeID: challenge.ID})
		return err
	})
	if ledger.IsDuplicateAward(err) {
		resp["already_awarded"] = true
		writeJSON(w, http.StatusOK, resp)
		return
	}
	if err != nil {
		writeLedgerError(w, h.logger, err)
		return
	}

	h.broadcast(challenge.GroupID, websocket.NewMessage("award", "created", award.ID, map[string]any{
		"user_id":      award.UserID,
		"challenge_id": challenge.ID,
		"points":       award.Points,
	}))
	resp["awarded"] = true
	resp["award"] = award
	writeJSON(w, http.StatusOK, resp)
}

// Reject marks the submission rejected. It has no ledger effect, so a
// submission whose points were already credited cannot be rejected.
func (h *SubmissionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	sub, challenge, ok := h.load(w, r)
	if !ok {
		return
	}

	award, err := h.awards.GetByUserChallenge(r.Context(), sub.UserID, challenge.ID)
	if err != nil {
		h.logger.Error("get award", "error", err, "submission_id", sub.ID)
		writeError(w, http.StatusInternalServerError, "failed to check award")
		return
	}
	if award != nil {
		writeError(w, http.StatusConflict, "points for this submission were already awarded")
		return
	}

	rejected, err := h.challenges.SetApproval(r.Context(), sub.ID, false, 0)
	if err != nil {
		h.logger.Error("reject submission", "error", err, "submission_id", sub.ID)
		writeError(w, http.StatusInternalServerError, "failed to reject submission")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"submission": rejected})
}
