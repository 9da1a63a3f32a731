package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/desafiados/internal/config"
	"github.com/dukerupert/desafiados/internal/handler"
	"github.com/dukerupert/desafiados/internal/ledger"
	"github.com/dukerupert/desafiados/internal/metrics"
	"github.com/dukerupert/desafiados/internal/middleware"
	"github.com/dukerupert/desafiados/internal/store"
	ws "github.com/dukerupert/desafiados/internal/websocket"
)

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	ledger      *ledger.Service
	ledgerH     *handler.LedgerHandler
	rewardH     *handler.RewardHandler
	submissionH *handler.SubmissionHandler
	groupStore  *store.GroupStore
	verifier    *middleware.TokenVerifier
	rateLimiter *middleware.RateLimiter
	metrics     *metrics.Ledger
	logger      *slog.Logger
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	m := metrics.NewLedger()

	groupStore := store.NewGroupStore(db)
	rewardStore := store.NewRewardStore(db)
	challengeStore := store.NewChallengeStore(db)
	awardStore := store.NewAwardStore(db)

	svc := ledger.New(ledger.NewStores(db),
		ledger.WithStoreTimeout(cfg.StoreTimeout),
		ledger.WithLogger(logger.With("component", "ledger")),
		ledger.WithMetrics(m),
	)

	return &Server{
		db:          db,
		hub:         hub,
		ledger:      svc,
		ledgerH:     handler.NewLedgerHandler(svc, groupStore, rewardStore, challengeStore, hub, logger.With("component", "ledger_handler")),
		rewardH:     handler.NewRewardHandler(rewardStore, groupStore, hub, logger.With("component", "reward")),
		submissionH: handler.NewSubmissionHandler(challengeStore, awardStore, groupStore, svc, hub, logger.With("component", "submission")),
		groupStore:  groupStore,
		verifier:    middleware.NewTokenVerifier(cfg.JWTSecret, cfg.JWTIssuer),
		rateLimiter: middleware.NewRateLimiter(cfg.RedeemRateLimit),
		metrics:     m,
		logger:      logger,
	}
}

// Ledger returns the ledger service.
func (s *Server) Ledger() *ledger.Service {
	return s.ledger
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.Handle("GET /metrics", s.metrics.Handler())

	// Protected routes, wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.verifier)
	outerMux.Handle("/", authMiddleware(protectedMux))

	// Apply request logging middleware
	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.KeyByUser)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Group views
	mux.HandleFunc("GET /api/groups/{group_id}/rewards/available", s.ledgerH.AvailableRewards)
	mux.HandleFunc("GET /api/groups/{group_id}/points", s.ledgerH.PointSummary)
	mux.HandleFunc("GET /api/groups/{group_id}/leaderboard", s.ledgerH.Leaderboard)
	mux.HandleFunc("GET /api/groups/{group_id}/stats", s.ledgerH.GroupStats)
	mux.HandleFunc("POST /api/groups/{group_id}/awards", s.ledgerH.Award)

	// Reward catalog (admin)
	mux.HandleFunc("GET /api/groups/{group_id}/rewards", s.rewardH.List)
	mux.HandleFunc("POST /api/groups/{group_id}/rewards", s.rewardH.Create)
	mux.HandleFunc("PUT /api/rewards/{id}", s.rewardH.Update)
	mux.HandleFunc("POST /api/rewards/{id}/active", s.rewardH.SetActive)

	// Redemption
	mux.HandleFunc("GET /api/rewards/{id}/can-redeem", s.ledgerH.CanRedeem)
	mux.HandleFunc("POST /api/rewards/{id}/redeem", s.rateLimitedHandler(s.ledgerH.Redeem))
	mux.HandleFunc("GET /api/rewards/{id}/redemptions", s.ledgerH.RewardRedemptions)
	mux.HandleFunc("GET /api/redemptions", s.ledgerH.History)

	// Submission review
	mux.HandleFunc("POST /api/submissions/{id}/approve", s.submissionH.Approve)
	mux.HandleFunc("POST /api/submissions/{id}/reject", s.submissionH.Reject)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.groupStore, nil, s.logger.With("component", "websocket")))
}
