package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/chorewheel/internal/auth"
	"github.com/dukerupert/chorewheel/internal/middleware"
	"github.com/dukerupert/chorewheel/internal/rotation"
	"github.com/dukerupert/chorewheel/internal/schedule"
	"github.com/dukerupert/chorewheel/internal/websocket"
	"github.com/dukerupert/chorewheel/internal/week"
)

type ScheduleHandler struct {
	service *schedule.Service
	hub     *websocket.Hub
	logger  *slog.Logger
	now     func() time.Time
}

func NewScheduleHandler(svc *schedule.Service, hub *websocket.Hub, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{service: svc, hub: hub, logger: logger, now: time.Now}
}

func (h *ScheduleHandler) writeScheduleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, schedule.ErrNotFound):
		writeError(w, http.StatusNotFound, "household not found")
	case errors.Is(err, week.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "week must be YYYY-MM-DD")
	case errors.Is(err, rotation.ErrInvalidCycleLength):
		writeError(w, http.StatusConflict, "household cycle length is invalid")
	case errors.Is(err, rotation.ErrDuplicateTitle):
		writeError(w, http.StatusConflict, err.Error())
	default:
		middleware.Logger(r.Context(), h.logger).Error("resolve schedule", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve schedule")
	}
}

// Week returns the resolved assignment for ?week=YYYY-MM-DD, or for the
// current week when the parameter is absent.
func (h *ScheduleHandler) Week(w http.ResponseWriter, r *http.Request) {
	id := auth.HouseholdID(r.Context())

	var (
		resolved *rotation.Week
		err      error
	)
	if key := r.URL.Query().Get("week"); key != "" {
		resolved, err = h.service.WeekByKey(id, key)
	} else {
		resolved, err = h.service.Week(id, h.now())
	}
	if err != nil {
		h.writeScheduleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resolved)
}

// Month resolves every week touching ?year=&month=. Missing values default to
// the current month on the household's calendar.
func (h *ScheduleHandler) Month(w http.ResponseWriter, r *http.Request) {
	id := auth.HouseholdID(r.Context())
	loc, err := h.service.Location(id)
	if err != nil {
		h.writeScheduleError(w, r, err)
		return
	}
	now := h.now().In(loc)
	year, month := now.Year(), int(now.Month())

	q := r.URL.Query()
	if v := q.Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = y
	}
	if v := q.Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			writeError(w, http.StatusBadRequest, "month must be 1-12")
			return
		}
		month = m
	}

	weeks, err := h.service.Month(id, year, time.Month(month))
	if err != nil {
		h.writeScheduleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year":  year,
		"month": month,
		"weeks": weeks,
	})
}

func (h *ScheduleHandler) Bundles(w http.ResponseWriter, r *http.Request) {
	bundles, err := h.service.Bundles(auth.HouseholdID(r.Context()))
	if err != nil {
		h.writeScheduleError(w, r, err)
		return
	}
	if bundles == nil {
		bundles = []rotation.Bundle{}
	}
	writeJSON(w, http.StatusOK, bundles)
}

// Materialize writes this week's instances now instead of waiting for the
// rollover scheduler.
func (h *ScheduleHandler) Materialize(w http.ResponseWriter, r *http.Request) {
	hc, _ := auth.FromContext(r.Context())

	result, err := h.service.Materialize(hc.HouseholdID, h.now())
	if err != nil {
		h.writeScheduleError(w, r, err)
		return
	}
	if result.Created > 0 {
		h.hub.Broadcast(websocket.NewMessage(hc.Code, "schedule", "materialized", 0, map[string]any{
			"week_key": result.WeekKey,
			"created":  result.Created,
		}))
	}
	writeJSON(w, http.StatusOK, result)
}
