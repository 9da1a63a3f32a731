package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/desafiados/internal/auth"
	"github.com/dukerupert/desafiados/internal/model"
	"github.com/dukerupert/desafiados/internal/store"
	"github.com/dukerupert/desafiados/internal/websocket"
)

// RewardHandler manages a group's reward catalog. All endpoints are
// admin-only; rewards are deactivated, never deleted.
type RewardHandler struct {
	rewardStore *store.RewardStore
	members     Members
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewRewardHandler(rs *store.RewardStore, members Members, hub *websocket.Hub, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{rewardStore: rs, members: members, hub: hub, logger: logger}
}

func (h *RewardHandler) broadcast(groupID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(groupID, msg)
	}
}

type rewardRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	PointsRequired int    `json:"points_required"`
	IsActive       *bool  `json:"is_active"`
}

func (req *rewardRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}
	if req.PointsRequired <= 0 {
		return "points_required must be greater than 0"
	}
	return ""
}

func (req *rewardRequest) active() bool {
	return req.IsActive == nil || *req.IsActive
}

func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseGroupParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}
	if !authorize(w, r, h.members, h.logger, groupID, true) {
		return
	}

	var req rewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	reward, err := h.rewardStore.Create(r.Context(), groupID, req.Name, req.Description, req.PointsRequired, req.active(), auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("create reward", "error", err, "group_id", groupID)
		writeError(w, http.StatusInternalServerError, "failed to create reward")
		return
	}

	h.broadcast(groupID, websocket.NewMessage("reward", "created", reward.ID, nil))

	writeJSON(w, http.StatusCreated, reward)
}

// List returns every reward of the group, including inactive ones.
func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseGroupParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}
	if !authorize(w, r, h.members, h.logger, groupID, true) {
		return
	}

	rewards, err := h.rewardStore.ListByGroup(r.Context(), groupID, false)
	if err != nil {
		h.logger.Error("list rewards", "error", err, "group_id", groupID)
		writeError(w, http.StatusInternalServerError, "failed to list rewards")
		return
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	writeJSON(w, http.StatusOK, rewards)
}

// loadForAdmin fetches the reward named in the path and checks the caller
// administers its group.
func (h *RewardHandler) loadForAdmin(w http.ResponseWriter, r *http.Request) (*model.Reward, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}

	existing, err := h.rewardStore.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get reward", "error", err, "reward_id", id)
		writeError(w, http.StatusInternalServerError, "failed to get reward")
		return nil, false
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "reward not found")
		return nil, false
	}
	if !authorize(w, r, h.members, h.logger, existing.GroupID, true) {
		return nil, false
	}
	return existing, true
}

// Update edits a reward. A new price applies to future redemptions only.
func (h *RewardHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadForAdmin(w, r)
	if !ok {
		return
	}

	var req rewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	active := existing.IsActive
	if req.IsActive != nil {
		active = *req.IsActive
	}

	reward, err := h.rewardStore.Update(r.Context(), existing.ID, req.Name, req.Description, req.PointsRequired, active)
	if err != nil {
		h.logger.Error("update reward", "error", err, "reward_id", existing.ID)
		writeError(w, http.StatusInternalServerError, "failed to update reward")
		return
	}

	h.broadcast(reward.GroupID, websocket.NewMessage("reward", "updated", reward.ID, nil))

	writeJSON(w, http.StatusOK, reward)
}

func (h *RewardHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadForAdmin(w, r)
	if !ok {
		return
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	reward, err := h.rewardStore.SetActive(r.Context(), existing.ID, req.Active)
	if err != nil {
		h.logger.Error("set reward active", "error", err, "reward_id", existing.ID)
		writeError(w, http.StatusInternalServerError, "failed to update reward")
		return
	}

	action := "deactivated"
	if reward.IsActive {
		action = "activated"
	}
	h.broadcast(reward.GroupID, websocket.NewMessage("reward", action, reward.ID, nil))

	writeJSON(w, http.StatusOK, reward)
}
