package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/desafiados/internal/auth"
	"github.com/dukerupert/desafiados/internal/model"
)

// Members looks up group membership for subscription checks.
type Members interface {
	GetMember(ctx context.Context, groupID int64, userID string) (*model.Membership, error)
}

// HandleWebSocket upgrades authenticated members to a notification stream
// for the group named by the group_id query parameter.
func HandleWebSocket(hub *Hub, members Members, originPatterns []string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserID(r.Context())
		groupID, err := strconv.ParseInt(r.URL.Query().Get("group_id"), 10, 64)
		if err != nil || groupID <= 0 {
			http.Error(w, "invalid group_id", http.StatusBadRequest)
			return
		}

		m, err := members.GetMember(r.Context(), groupID, userID)
		if err != nil {
			logger.Error("websocket membership lookup", "error", err, "group_id", groupID)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if m == nil {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{OriginPatterns: originPatterns})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		NewClient(hub, conn, groupID, userID).Run(r.Context())
	}
}
