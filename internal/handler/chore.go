package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/chorewheel/internal/auth"
	"github.com/dukerupert/chorewheel/internal/middleware"
	"github.com/dukerupert/chorewheel/internal/model"
	"github.com/dukerupert/chorewheel/internal/store"
	"github.com/dukerupert/chorewheel/internal/websocket"
)

type ChoreHandler struct {
	choreStore     *store.ChoreStore
	memberStore    *store.MemberStore
	householdStore *store.HouseholdStore
	hub            *websocket.Hub
	logger         *slog.Logger
}

func NewChoreHandler(cs *store.ChoreStore, ms *store.MemberStore, hs *store.HouseholdStore, hub *websocket.Hub, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{choreStore: cs, memberStore: ms, householdStore: hs, hub: hub, logger: logger}
}

// --- Common-area chores ---

func (h *ChoreHandler) ListCommon(w http.ResponseWriter, r *http.Request) {
	chores, err := h.choreStore.ListCommon(auth.HouseholdID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list chores")
		return
	}
	if chores == nil {
		chores = []model.CommonChore{}
	}
	writeJSON(w, http.StatusOK, chores)
}

func (h *ChoreHandler) CreateCommon(w http.ResponseWriter, r *http.Request) {
	hc, _ := auth.FromContext(r.Context())

	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	if !h.titleFree(w, hc.HouseholdID, req.Title) {
		return
	}

	chore, err := h.choreStore.CreateCommon(hc.HouseholdID, req.Title)
	if err != nil {
		middleware.Logger(r.Context(), h.logger).Error("create common chore", "household_id", hc.HouseholdID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create chore")
		return
	}

	h.hub.Broadcast(websocket.NewMessage(hc.Code, "chore", "created", chore.ID, nil))
	writeJSON(w, http.StatusCreated, chore)
}

func (h *ChoreHandler) DeleteCommon(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	existing, err := h.choreStore.GetCommonByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get chore")
		return
	}
	if existing == nil || existing.HouseholdID != auth.HouseholdID(r.Context()) {
		writeError(w, http.StatusNotFound, "chore not found")
		return
	}

	if err := h.choreStore.DeleteCommon(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete chore")
		return
	}

	h.hub.Broadcast(websocket.NewMessage(auth.Code(r.Context()), "chore", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

// --- Sole-responsibility tasks ---

type soleTaskRequest struct {
	Title       string             `json:"title"`
	Responsible []int64            `json:"responsible"`
	LegacySlots []model.LegacySlot `json:"legacy_slots"`
}

// checkMembers reports whether every id is a member of householdID.
func (h *ChoreHandler) checkMembers(householdID int64, ids []int64) (bool, error) {
	for _, id := range ids {
		m, err := h.memberStore.GetByID(id)
		if err != nil {
			return false, err
		}
		if m == nil || m.HouseholdID != householdID {
			return false, nil
		}
	}
	return true, nil
}

// titleFree writes a 409 when title already names a chore or sole task.
func (h *ChoreHandler) titleFree(w http.ResponseWriter, householdID int64, title string) bool {
	inUse, err := h.choreStore.TitleInUse(householdID, title)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check title")
		return false
	}
	if inUse {
		writeError(w, http.StatusConflict, "a chore or sole task with that title already exists")
		return false
	}
	return true
}

func slotMemberIDs(slots []model.LegacySlot) []int64 {
	ids := make([]int64, 0, len(slots))
	for _, s := range slots {
		ids = append(ids, s.MemberID)
	}
	return ids
}

func (h *ChoreHandler) ListSole(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.choreStore.ListSoleTasks(auth.HouseholdID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sole tasks")
		return
	}
	if tasks == nil {
		tasks = []model.SoleTask{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// CreateSole adds a sole task. Responsibility comes either from an ordered
// member list or from legacy week-numbered slots.
func (h *ChoreHandler) CreateSole(w http.ResponseWriter, r *http.Request) {
	hc, _ := auth.FromContext(r.Context())

	var req soleTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if len(req.Responsible) > 0 && len(req.LegacySlots) > 0 {
		writeError(w, http.StatusBadRequest, "use responsible or legacy_slots, not both")
		return
	}

	ok, err := h.checkMembers(hc.HouseholdID, append(req.Responsible, slotMemberIDs(req.LegacySlots)...))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check members")
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "member not found")
		return
	}

	if !h.titleFree(w, hc.HouseholdID, req.Title) {
		return
	}

	responsible := req.Responsible
	if len(req.LegacySlots) > 0 {
		hh, err := h.householdStore.GetByID(hc.HouseholdID)
		if err != nil || hh == nil {
			writeError(w, http.StatusInternalServerError, "failed to get household")
			return
		}
		if responsible, err = store.LegacyOrder(req.LegacySlots, hh.CycleLength); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	task, err := h.choreStore.CreateSoleTask(hc.HouseholdID, req.Title, responsible)
	if err != nil {
		middleware.Logger(r.Context(), h.logger).Error("create sole task", "household_id", hc.HouseholdID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create sole task")
		return
	}

	h.hub.Broadcast(websocket.NewMessage(hc.Code, "sole_task", "created", task.ID, nil))
	writeJSON(w, http.StatusCreated, task)
}

func (h *ChoreHandler) lookupSole(w http.ResponseWriter, r *http.Request) *model.SoleTask {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil
	}
	task, err := h.choreStore.GetSoleTask(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get sole task")
		return nil
	}
	if task == nil || task.HouseholdID != auth.HouseholdID(r.Context()) {
		writeError(w, http.StatusNotFound, "sole task not found")
		return nil
	}
	return task
}

// UpdateSole replaces the ordered list of responsible members.
func (h *ChoreHandler) UpdateSole(w http.ResponseWriter, r *http.Request) {
	task := h.lookupSole(w, r)
	if task == nil {
		return
	}

	var req struct {
		Responsible []int64 `json:"responsible"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	ok, err := h.checkMembers(task.HouseholdID, req.Responsible)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check members")
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "member not found")
		return
	}

	if err := h.choreStore.SetResponsible(task.ID, req.Responsible); err != nil {
		middleware.Logger(r.Context(), h.logger).Error("set responsible", "task_id", task.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update sole task")
		return
	}
	updated, err := h.choreStore.GetSoleTask(task.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get sole task")
		return
	}

	h.hub.Broadcast(websocket.NewMessage(auth.Code(r.Context()), "sole_task", "updated", task.ID, nil))
	writeJSON(w, http.StatusOK, updated)
}

func (h *ChoreHandler) DeleteSole(w http.ResponseWriter, r *http.Request) {
	task := h.lookupSole(w, r)
	if task == nil {
		return
	}
	if err := h.choreStore.DeleteSoleTask(task.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete sole task")
		return
	}

	h.hub.Broadcast(websocket.NewMessage(auth.Code(r.Context()), "sole_task", "deleted", task.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}
