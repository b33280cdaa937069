package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/chorewheel/internal/auth"
	"github.com/dukerupert/chorewheel/internal/chore"
	"github.com/dukerupert/chorewheel/internal/middleware"
	"github.com/dukerupert/chorewheel/internal/model"
	"github.com/dukerupert/chorewheel/internal/store"
	"github.com/dukerupert/chorewheel/internal/websocket"
	"github.com/dukerupert/chorewheel/internal/week"
)

type InstanceHandler struct {
	instanceStore  *store.InstanceStore
	memberStore    *store.MemberStore
	householdStore *store.HouseholdStore
	hub            *websocket.Hub
	logger         *slog.Logger
	now            func() time.Time
}

func NewInstanceHandler(is *store.InstanceStore, ms *store.MemberStore, hs *store.HouseholdStore, hub *websocket.Hub, logger *slog.Logger) *InstanceHandler {
	return &InstanceHandler{instanceStore: is, memberStore: ms, householdStore: hs, hub: hub, logger: logger, now: time.Now}
}

func (h *InstanceHandler) lookup(w http.ResponseWriter, r *http.Request, id int64) *model.ChoreInstance {
	in, err := h.instanceStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get instance")
		return nil
	}
	if in == nil || in.HouseholdID != auth.HouseholdID(r.Context()) {
		writeError(w, http.StatusNotFound, "instance not found")
		return nil
	}
	return in
}

func (h *InstanceHandler) lookupParam(w http.ResponseWriter, r *http.Request) *model.ChoreInstance {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil
	}
	return h.lookup(w, r, id)
}

func (h *InstanceHandler) updated(r *http.Request, in *model.ChoreInstance, action string) {
	h.hub.Broadcast(websocket.NewMessage(auth.Code(r.Context()), "chore_instance", action, in.ID, map[string]any{
		"week_key": in.WeekKey,
	}))
}

// List returns the stored instances for ?week= (any date in the week), or the
// current week in the household's time zone. Nothing is materialized here.
func (h *InstanceHandler) List(w http.ResponseWriter, r *http.Request) {
	hh, err := h.householdStore.GetByID(auth.HouseholdID(r.Context()))
	if err != nil || hh == nil {
		writeError(w, http.StatusInternalServerError, "failed to get household")
		return
	}
	loc := hh.Location()

	key := r.URL.Query().Get("week")
	if key == "" {
		key = week.Key(h.now().In(loc))
	}
	monday, err := week.ParseKey(key, loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "week must be YYYY-MM-DD")
		return
	}

	instances, err := h.instanceStore.ListByWeek(hh.ID, week.Key(monday))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list instances")
		return
	}
	writeJSON(w, http.StatusOK, chore.WithStatus(instances, h.now(), loc))
}

// Toggle flips an instance between done and not done.
func (h *InstanceHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	in := h.lookupParam(w, r)
	if in == nil {
		return
	}

	updated, err := h.instanceStore.SetDone(in.ID, !in.IsDone(), auth.Actor(r.Context()))
	if err != nil {
		middleware.Logger(r.Context(), h.logger).Error("toggle instance", "instance_id", in.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update instance")
		return
	}

	action := "completed"
	if !updated.IsDone() {
		action = "uncompleted"
	}
	h.updated(r, updated, action)
	writeJSON(w, http.StatusOK, updated)
}

// Assign overrides who does one instance. A null member_id unassigns it.
func (h *InstanceHandler) Assign(w http.ResponseWriter, r *http.Request) {
	in := h.lookupParam(w, r)
	if in == nil {
		return
	}

	var req struct {
		MemberID *int64 `json:"member_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var member *model.Member
	if req.MemberID != nil {
		m, err := h.memberStore.GetByID(*req.MemberID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to get member")
			return
		}
		if m == nil || m.HouseholdID != in.HouseholdID {
			writeError(w, http.StatusBadRequest, "member not found")
			return
		}
		member = m
	}

	updated, err := h.instanceStore.Reassign(in.ID, member, auth.Actor(r.Context()))
	if err != nil {
		middleware.Logger(r.Context(), h.logger).Error("reassign instance", "instance_id", in.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reassign instance")
		return
	}

	h.updated(r, updated, "reassigned")
	writeJSON(w, http.StatusOK, updated)
}

// Swap exchanges assignees with another instance of the same week.
func (h *InstanceHandler) Swap(w http.ResponseWriter, r *http.Request) {
	in := h.lookupParam(w, r)
	if in == nil {
		return
	}

	var req struct {
		WithID int64 `json:"with_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.WithID == in.ID {
		writeError(w, http.StatusBadRequest, "cannot swap an instance with itself")
		return
	}
	other := h.lookup(w, r, req.WithID)
	if other == nil {
		return
	}

	if err := h.instanceStore.Swap(in.ID, other.ID, auth.Actor(r.Context())); err != nil {
		if errors.Is(err, store.ErrSwapAcrossWeeks) {
			writeError(w, http.StatusConflict, "instances belong to different weeks")
			return
		}
		middleware.Logger(r.Context(), h.logger).Error("swap instances", "a", in.ID, "b", other.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to swap instances")
		return
	}

	a, errA := h.instanceStore.GetByID(in.ID)
	b, errB := h.instanceStore.GetByID(other.ID)
	if errA != nil || errB != nil {
		writeError(w, http.StatusInternalServerError, "failed to get instances")
		return
	}
	h.updated(r, a, "swapped")
	h.updated(r, b, "swapped")
	writeJSON(w, http.StatusOK, []model.ChoreInstance{*a, *b})
}

// SetDue moves an instance's due date.
func (h *InstanceHandler) SetDue(w http.ResponseWriter, r *http.Request) {
	in := h.lookupParam(w, r)
	if in == nil {
		return
	}

	var req struct {
		DueAt time.Time `json:"due_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "due_at must be an RFC 3339 time")
		return
	}
	if req.DueAt.IsZero() {
		writeError(w, http.StatusBadRequest, "due_at is required")
		return
	}

	updated, err := h.instanceStore.SetDueDate(in.ID, req.DueAt, auth.Actor(r.Context()))
	if err != nil {
		middleware.Logger(r.Context(), h.logger).Error("set due date", "instance_id", in.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update due date")
		return
	}

	h.updated(r, updated, "rescheduled")
	writeJSON(w, http.StatusOK, updated)
}

func (h *InstanceHandler) History(w http.ResponseWriter, r *http.Request) {
	in := h.lookupParam(w, r)
	if in == nil {
		return
	}

	changes, err := h.instanceStore.History(in.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	if changes == nil {
		changes = []model.InstanceChange{}
	}
	writeJSON(w, http.StatusOK, changes)
}
