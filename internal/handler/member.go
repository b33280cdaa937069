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

type MemberHandler struct {
	store  *store.MemberStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewMemberHandler(s *store.MemberStore, hub *websocket.Hub, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{store: s, hub: hub, logger: logger}
}

// lookup returns the member named by the {id} path value if it belongs to the
// request's household, writing the error response otherwise.
func (h *MemberHandler) lookup(w http.ResponseWriter, r *http.Request) *model.Member {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil
	}
	m, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get member")
		return nil
	}
	if m == nil || m.HouseholdID != auth.HouseholdID(r.Context()) {
		writeError(w, http.StatusNotFound, "member not found")
		return nil
	}
	return m
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.store.List(auth.HouseholdID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	hc, _ := auth.FromContext(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	exists, err := h.store.NameExists(hc.HouseholdID, req.Name, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check name")
		return
	}
	if exists {
		writeError(w, http.StatusConflict, "a member with that name already exists")
		return
	}

	member, err := h.store.Create(hc.HouseholdID, req.Name)
	if err != nil {
		middleware.Logger(r.Context(), h.logger).Error("create member", "household_id", hc.HouseholdID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create member")
		return
	}

	h.hub.Broadcast(websocket.NewMessage(hc.Code, "member", "created", member.ID, nil))
	writeJSON(w, http.StatusCreated, member)
}

// Rename changes only the display name. The member keeps its rotation slot.
func (h *MemberHandler) Rename(w http.ResponseWriter, r *http.Request) {
	existing := h.lookup(w, r)
	if existing == nil {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	exists, err := h.store.NameExists(existing.HouseholdID, req.Name, existing.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check name")
		return
	}
	if exists {
		writeError(w, http.StatusConflict, "a member with that name already exists")
		return
	}

	member, err := h.store.Rename(existing.ID, req.Name)
	if err != nil {
		middleware.Logger(r.Context(), h.logger).Error("rename member", "member_id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to rename member")
		return
	}

	h.hub.Broadcast(websocket.NewMessage(auth.Code(r.Context()), "member", "renamed", member.ID, map[string]any{
		"old_name": existing.Name,
		"name":     member.Name,
	}))
	writeJSON(w, http.StatusOK, member)
}

func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing := h.lookup(w, r)
	if existing == nil {
		return
	}

	if err := h.store.Delete(existing.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete member")
		return
	}

	h.hub.Broadcast(websocket.NewMessage(auth.Code(r.Context()), "member", "deleted", existing.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}
