package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/chorewheel/internal/auth"
	"github.com/dukerupert/chorewheel/internal/household"
	"github.com/dukerupert/chorewheel/internal/middleware"
	"github.com/dukerupert/chorewheel/internal/model"
	"github.com/dukerupert/chorewheel/internal/store"
	"github.com/dukerupert/chorewheel/internal/websocket"
	"github.com/dukerupert/chorewheel/internal/week"
)

// defaultCycleLength applies when a household is created without members.
const defaultCycleLength = 4

type HouseholdHandler struct {
	households *store.HouseholdStore
	members    *store.MemberStore
	hub        *websocket.Hub
	logger     *slog.Logger
	now        func() time.Time
}

func NewHouseholdHandler(hs *store.HouseholdStore, ms *store.MemberStore, hub *websocket.Hub, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{households: hs, members: ms, hub: hub, logger: logger, now: time.Now}
}

type householdResponse struct {
	*model.Household
	Members []model.Member `json:"members"`
}

func validPIN(pin string) bool {
	return len(pin) >= 4 && len(pin) <= 8 && isDigits(pin)
}

func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string   `json:"name"`
		Timezone    string   `json:"timezone"`
		AdminPIN    string   `json:"admin_pin"`
		CycleLength *int     `json:"cycle_length"`
		Members     []string `json:"members"`
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
	if req.Timezone == "" {
		req.Timezone = "UTC"
	}
	loc, err := time.LoadLocation(req.Timezone)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown timezone")
		return
	}

	var names []string
	seen := make(map[string]bool)
	for _, n := range req.Members {
		n = strings.TrimSpace(n)
		if n == "" || seen[strings.ToLower(n)] {
			continue
		}
		seen[strings.ToLower(n)] = true
		names = append(names, n)
	}

	cycle := defaultCycleLength
	if len(names) > 0 {
		cycle = len(names)
	}
	if req.CycleLength != nil {
		if *req.CycleLength <= 0 {
			writeError(w, http.StatusBadRequest, "cycle_length must be positive")
			return
		}
		cycle = *req.CycleLength
	}

	var pinHash string
	if req.AdminPIN != "" {
		if !validPIN(req.AdminPIN) {
			writeError(w, http.StatusBadRequest, "admin_pin must be 4 to 8 digits")
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.AdminPIN), bcrypt.DefaultCost)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to hash PIN")
			return
		}
		pinHash = string(hash)
	}

	anchor := week.Key(week.StartOfMonday(h.now().In(loc)))
	hh, err := h.households.Create(req.Name, req.Timezone, anchor, cycle, pinHash, names...)
	if err != nil {
		if errors.Is(err, household.ErrCodeExhausted) {
			writeError(w, http.StatusServiceUnavailable, "could not allocate a household code, try again")
			return
		}
		middleware.Logger(r.Context(), h.logger).Error("create household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create household")
		return
	}

	members, err := h.members.List(hh.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	if members == nil {
		members = []model.Member{}
	}

	middleware.Logger(r.Context(), h.logger).Info("household created", "household_id", hh.ID, "code", hh.Code, "anchor", anchor, "cycle_length", cycle)
	writeJSON(w, http.StatusCreated, householdResponse{Household: hh, Members: members})
}

func (h *HouseholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	hh, err := h.households.GetByID(auth.HouseholdID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get household")
		return
	}
	if hh == nil {
		writeError(w, http.StatusNotFound, "household not found")
		return
	}

	members, err := h.members.List(hh.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, householdResponse{Household: hh, Members: members})
}

// Reanchor moves the rotation anchor or cycle length. It is the only path that
// changes either, and it requires the household admin PIN.
func (h *HouseholdHandler) Reanchor(w http.ResponseWriter, r *http.Request) {
	hc, _ := auth.FromContext(r.Context())

	var req struct {
		AdminPIN    string `json:"admin_pin"`
		Anchor      string `json:"anchor"`
		CycleLength int    `json:"cycle_length"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	hh, err := h.households.GetByID(hc.HouseholdID)
	if err != nil || hh == nil {
		writeError(w, http.StatusInternalServerError, "failed to get household")
		return
	}

	hash, err := h.households.GetAdminPINHash(hh.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get PIN")
		return
	}
	if hash == "" {
		writeError(w, http.StatusForbidden, "no admin PIN set for this household")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.AdminPIN)); err != nil {
		middleware.Logger(r.Context(), h.logger).Warn("reanchor rejected", "household_id", hh.ID)
		writeError(w, http.StatusUnauthorized, "incorrect PIN")
		return
	}

	anchor := hh.AnchorDate
	if req.Anchor != "" {
		monday, err := week.ParseKey(req.Anchor, hh.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, "anchor must be YYYY-MM-DD")
			return
		}
		anchor = week.Key(monday)
	}
	cycle := hh.CycleLength
	if req.CycleLength < 0 {
		writeError(w, http.StatusBadRequest, "cycle_length must be positive")
		return
	}
	if req.CycleLength > 0 {
		cycle = req.CycleLength
	}

	updated, err := h.households.SetAnchor(hh.ID, anchor, cycle)
	if err != nil {
		middleware.Logger(r.Context(), h.logger).Error("set anchor", "household_id", hh.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update anchor")
		return
	}

	middleware.Logger(r.Context(), h.logger).Info("household reanchored", "household_id", hh.ID, "anchor", anchor, "cycle_length", cycle)
	h.hub.Broadcast(websocket.NewMessage(hc.Code, "household", "reanchored", hh.ID, map[string]any{
		"anchor_date":  anchor,
		"cycle_length": cycle,
	}))
	writeJSON(w, http.StatusOK, updated)
}
