package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/chorewheel/internal/database"
	"github.com/dukerupert/chorewheel/internal/handler"
	"github.com/dukerupert/chorewheel/internal/middleware"
	"github.com/dukerupert/chorewheel/internal/schedule"
	"github.com/dukerupert/chorewheel/internal/store"
	ws "github.com/dukerupert/chorewheel/internal/websocket"
)

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	householdH     *handler.HouseholdHandler
	memberH        *handler.MemberHandler
	choreH         *handler.ChoreHandler
	scheduleH      *handler.ScheduleHandler
	instanceH      *handler.InstanceHandler
	householdStore *store.HouseholdStore
	service        *schedule.Service
	rateLimiter    *middleware.RateLimiter
	logger         *slog.Logger
}

func New(db *sql.DB, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	householdStore := store.NewHouseholdStore(db)
	memberStore := store.NewMemberStore(db)
	choreStore := store.NewChoreStore(db)
	instanceStore := store.NewInstanceStore(db)

	svc := schedule.NewService(householdStore, memberStore, choreStore, instanceStore, logger.With("component", "schedule"))

	return &Server{
		db:             db,
		hub:            hub,
		householdH:     handler.NewHouseholdHandler(householdStore, memberStore, hub, logger.With("component", "household")),
		memberH:        handler.NewMemberHandler(memberStore, hub, logger.With("component", "member")),
		choreH:         handler.NewChoreHandler(choreStore, memberStore, householdStore, hub, logger.With("component", "chore")),
		scheduleH:      handler.NewScheduleHandler(svc, hub, logger.With("component", "schedule_handler")),
		instanceH:      handler.NewInstanceHandler(instanceStore, memberStore, householdStore, hub, logger.With("component", "instance")),
		householdStore: householdStore,
		service:        svc,
		rateLimiter:    middleware.NewRateLimiter(),
		logger:         logger,
	}
}

// Service returns the schedule service for the rollover scheduler.
func (s *Server) Service() *schedule.Service {
	return s.service
}

// Hub returns the WebSocket hub so background jobs can announce changes.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.householdExists, s.logger.With("component", "websocket")))

	mux.HandleFunc("POST /api/households", s.rateLimitedHandler(s.householdH.Create))
	s.registerHouseholdRoutes(mux)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) householdExists(code string) (bool, error) {
	h, err := s.householdStore.GetByCode(code)
	return h != nil, err
}

// healthHandler reports 503 when the database is unreachable.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	version, err := database.SchemaVersion(s.db)
	if err != nil {
		middleware.Logger(r.Context(), s.logger).Error("health check", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]any{"status": "unavailable"})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"status":         "ok",
		"schema_version": version,
		"ws_clients":     s.hub.ClientCount(),
		"ws_households":  s.hub.RoomCount(),
	})
}

// rateLimitedHandler allows 10 requests a minute per client and household.
func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	return middleware.RateLimit(s.rateLimiter, middleware.HouseholdKey, 10, time.Minute)(h).ServeHTTP
}

// registerHouseholdRoutes mounts everything under /api/households/{code}. Each
// route resolves the code to a household before its handler runs.
func (s *Server) registerHouseholdRoutes(mux *http.ServeMux) {
	scoped := middleware.RequireHousehold(s.householdStore)
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, scoped(h))
	}

	handle("GET /api/households/{code}", s.householdH.Get)
	handle("PUT /api/households/{code}/anchor", s.rateLimitedHandler(s.householdH.Reanchor))

	// Members
	handle("GET /api/households/{code}/members", s.memberH.List)
	handle("POST /api/households/{code}/members", s.memberH.Create)
	handle("PUT /api/households/{code}/members/{id}", s.memberH.Rename)
	handle("DELETE /api/households/{code}/members/{id}", s.memberH.Delete)

	// Common-area chores
	handle("GET /api/households/{code}/chores", s.choreH.ListCommon)
	handle("POST /api/households/{code}/chores", s.choreH.CreateCommon)
	handle("DELETE /api/households/{code}/chores/{id}", s.choreH.DeleteCommon)

	// Sole-responsibility tasks
	handle("GET /api/households/{code}/sole-tasks", s.choreH.ListSole)
	handle("POST /api/households/{code}/sole-tasks", s.choreH.CreateSole)
	handle("PUT /api/households/{code}/sole-tasks/{id}", s.choreH.UpdateSole)
	handle("DELETE /api/households/{code}/sole-tasks/{id}", s.choreH.DeleteSole)

	// Schedule
	handle("GET /api/households/{code}/bundles", s.scheduleH.Bundles)
	handle("GET /api/households/{code}/schedule", s.scheduleH.Week)
	handle("GET /api/households/{code}/schedule/month", s.scheduleH.Month)
	handle("POST /api/households/{code}/materialize", s.scheduleH.Materialize)

	// Instances
	handle("GET /api/households/{code}/instances", s.instanceH.List)
	handle("POST /api/households/{code}/instances/{id}/toggle", s.instanceH.Toggle)
	handle("PUT /api/households/{code}/instances/{id}/assignee", s.instanceH.Assign)
	handle("POST /api/households/{code}/instances/{id}/swap", s.instanceH.Swap)
	handle("PUT /api/households/{code}/instances/{id}/due", s.instanceH.SetDue)
	handle("GET /api/households/{code}/instances/{id}/history", s.instanceH.History)
}
