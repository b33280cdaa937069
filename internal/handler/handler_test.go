package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/dukerupert/chorewheel/internal/chore"
	"github.com/dukerupert/chorewheel/internal/database"
	"github.com/dukerupert/chorewheel/internal/middleware"
	"github.com/dukerupert/chorewheel/internal/model"
	"github.com/dukerupert/chorewheel/internal/rotation"
	"github.com/dukerupert/chorewheel/internal/schedule"
	"github.com/dukerupert/chorewheel/internal/store"
	"github.com/dukerupert/chorewheel/internal/websocket"
)

// fixedNow is a Wednesday.
var fixedNow = time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)

type testEnv struct {
	now time.Time
	mux *http.ServeMux
	hs  *store.HouseholdStore
	cs  *store.ChoreStore
	is  *store.InstanceStore
}

func setupHandlers(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	env := &testEnv{now: fixedNow}
	clock := func() time.Time { return env.now }

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := websocket.NewHub(logger)
	hs := store.NewHouseholdStore(db)
	ms := store.NewMemberStore(db)
	cs := store.NewChoreStore(db)
	is := store.NewInstanceStore(db)
	svc := schedule.NewService(hs, ms, cs, is, logger)

	householdH := NewHouseholdHandler(hs, ms, hub, logger)
	householdH.now = clock
	memberH := NewMemberHandler(ms, hub, logger)
	choreH := NewChoreHandler(cs, ms, hs, hub, logger)
	scheduleH := NewScheduleHandler(svc, hub, logger)
	scheduleH.now = clock
	instanceH := NewInstanceHandler(is, ms, hs, hub, logger)
	instanceH.now = clock

	mux := http.NewServeMux()
	scoped := middleware.RequireHousehold(hs)
	handle := func(pattern string, h http.HandlerFunc) { mux.Handle(pattern, scoped(h)) }

	mux.HandleFunc("POST /api/households", householdH.Create)
	handle("GET /api/households/{code}", householdH.Get)
	handle("PUT /api/households/{code}/anchor", householdH.Reanchor)
	handle("GET /api/households/{code}/members", memberH.List)
	handle("POST /api/households/{code}/members", memberH.Create)
	handle("PUT /api/households/{code}/members/{id}", memberH.Rename)
	handle("DELETE /api/households/{code}/members/{id}", memberH.Delete)
	handle("GET /api/households/{code}/chores", choreH.ListCommon)
	handle("POST /api/households/{code}/chores", choreH.CreateCommon)
	handle("DELETE /api/households/{code}/chores/{id}", choreH.DeleteCommon)
	handle("GET /api/households/{code}/sole-tasks", choreH.ListSole)
	handle("POST /api/households/{code}/sole-tasks", choreH.CreateSole)
	handle("PUT /api/households/{code}/sole-tasks/{id}", choreH.UpdateSole)
	handle("DELETE /api/households/{code}/sole-tasks/{id}", choreH.DeleteSole)
	handle("GET /api/households/{code}/bundles", scheduleH.Bundles)
	handle("GET /api/households/{code}/schedule", scheduleH.Week)
	handle("GET /api/households/{code}/schedule/month", scheduleH.Month)
	handle("POST /api/households/{code}/materialize", scheduleH.Materialize)
	handle("GET /api/households/{code}/instances", instanceH.List)
	handle("POST /api/households/{code}/instances/{id}/toggle", instanceH.Toggle)
	handle("PUT /api/households/{code}/instances/{id}/assignee", instanceH.Assign)
	handle("POST /api/households/{code}/instances/{id}/swap", instanceH.Swap)
	handle("PUT /api/households/{code}/instances/{id}/due", instanceH.SetDue)
	handle("GET /api/households/{code}/instances/{id}/history", instanceH.History)

	env.mux, env.hs, env.cs, env.is = mux, hs, cs, is
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(middleware.ActorHeader, "tester")
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

type createdHousehold struct {
	model.Household
	Members []model.Member `json:"members"`
}

func createHousehold(t *testing.T, e *testEnv, body map[string]any) createdHousehold {
	t.Helper()
	rec := e.do(t, "POST", "/api/households", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create household: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	return decode[createdHousehold](t, rec)
}

func TestCreateHouseholdDefaults(t *testing.T) {
	e := setupHandlers(t)

	h := createHousehold(t, e, map[string]any{
		"name":      "Maple St",
		"timezone":  "America/Chicago",
		"admin_pin": "1234",
		"members":   []string{"Alice", "Bob", "alice", " "},
	})

	if len(h.Code) != 6 {
		t.Errorf("code = %q, want 6 chars", h.Code)
	}
	if h.AnchorDate != "2024-01-08" {
		t.Errorf("anchor = %q, want 2024-01-08", h.AnchorDate)
	}
	if h.CycleLength != 2 {
		t.Errorf("cycle length = %d, want member count 2", h.CycleLength)
	}
	if !h.HasAdminPIN {
		t.Error("expected admin pin")
	}
	if len(h.Members) != 2 || h.Members[0].Name != "Alice" || h.Members[1].Name != "Bob" {
		t.Errorf("members = %+v", h.Members)
	}

	empty := createHousehold(t, e, map[string]any{"name": "Empty"})
	if empty.CycleLength != 4 {
		t.Errorf("empty cycle length = %d, want 4", empty.CycleLength)
	}
	if empty.Timezone != "UTC" {
		t.Errorf("timezone = %q, want UTC", empty.Timezone)
	}
}

func TestCreateHouseholdValidation(t *testing.T) {
	e := setupHandlers(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing name", map[string]any{"name": " "}},
		{"bad timezone", map[string]any{"name": "X", "timezone": "Mars/Olympus"}},
		{"zero cycle", map[string]any{"name": "X", "cycle_length": 0}},
		{"short pin", map[string]any{"name": "X", "admin_pin": "12"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, "POST", "/api/households", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestGetHouseholdUnknownCode(t *testing.T) {
	e := setupHandlers(t)

	rec := e.do(t, "GET", "/api/households/ZZZZZ9", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestReanchorRequiresPIN(t *testing.T) {
	e := setupHandlers(t)
	h := createHousehold(t, e, map[string]any{"name": "Home", "admin_pin": "2468"})
	path := "/api/households/" + h.Code + "/anchor"

	rec := e.do(t, "PUT", path, map[string]any{"admin_pin": "0000", "anchor": "2024-03-06"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong pin: status = %d, want 401", rec.Code)
	}

	rec = e.do(t, "PUT", path, map[string]any{"admin_pin": "2468", "anchor": "2024-03-06", "cycle_length": 3})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	got := decode[model.Household](t, rec)
	if got.AnchorDate != "2024-03-04" {
		t.Errorf("anchor = %q, want Monday 2024-03-04", got.AnchorDate)
	}
	if got.CycleLength != 3 {
		t.Errorf("cycle = %d, want 3", got.CycleLength)
	}

	noPIN := createHousehold(t, e, map[string]any{"name": "Open"})
	rec = e.do(t, "PUT", "/api/households/"+noPIN.Code+"/anchor", map[string]any{"admin_pin": "", "anchor": "2024-03-04"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("no pin set: status = %d, want 403", rec.Code)
	}
}

func TestMemberEndpoints(t *testing.T) {
	e := setupHandlers(t)
	h := createHousehold(t, e, map[string]any{"name": "Home", "members": []string{"Alice"}})
	base := "/api/households/" + h.Code + "/members"

	rec := e.do(t, "POST", base, map[string]string{"name": "ALICE"})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate: status = %d, want 409", rec.Code)
	}

	rec = e.do(t, "POST", base, map[string]string{"name": "Bob"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", rec.Code)
	}
	bob := decode[model.Member](t, rec)

	rec = e.do(t, "PUT", base+"/"+itoa(bob.ID), map[string]string{"name": "Aaron"})
	if rec.Code != http.StatusOK {
		t.Fatalf("rename: status = %d", rec.Code)
	}

	rec = e.do(t, "GET", base, nil)
	list := decode[[]model.Member](t, rec)
	if len(list) != 2 || list[0].Name != "Alice" || list[1].Name != "Aaron" {
		t.Errorf("list = %+v, want Alice then Aaron", list)
	}

	other := createHousehold(t, e, map[string]any{"name": "Other"})
	rec = e.do(t, "DELETE", "/api/households/"+other.Code+"/members/"+itoa(bob.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-household delete: status = %d, want 404", rec.Code)
	}

	rec = e.do(t, "DELETE", base+"/"+itoa(bob.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete: status = %d, want 204", rec.Code)
	}
}

func TestScheduleWeekAndBundles(t *testing.T) {
	e := setupHandlers(t)
	h := createHousehold(t, e, map[string]any{"name": "Home", "members": []string{"A", "B", "C"}})
	base := "/api/households/" + h.Code

	for _, title := range []string{"Vacuum", "Dishes", "Trash", "Bathroom"} {
		if rec := e.do(t, "POST", base+"/chores", map[string]string{"title": title}); rec.Code != http.StatusCreated {
			t.Fatalf("create chore %q: status = %d", title, rec.Code)
		}
	}
	if rec := e.do(t, "POST", base+"/chores", map[string]string{"title": "Vacuum"}); rec.Code != http.StatusConflict {
		t.Errorf("duplicate chore: status = %d, want 409", rec.Code)
	}

	rec := e.do(t, "GET", base+"/bundles", nil)
	bundles := decode[[]rotation.Bundle](t, rec)
	if len(bundles) != 3 || len(bundles[0].Chores) != 2 {
		t.Fatalf("bundles = %+v", bundles)
	}

	// anchored on 2024-01-08; two weeks later is index 2
	rec = e.do(t, "GET", base+"/schedule?week=2024-01-24", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("schedule: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	w := decode[rotation.Week](t, rec)
	if w.Key != "2024-01-22" || w.Index != 2 {
		t.Errorf("week = %s index %d, want 2024-01-22 index 2", w.Key, w.Index)
	}
	if w.Bundles[0].MemberName != "C" {
		t.Errorf("bundle A -> %q, want C", w.Bundles[0].MemberName)
	}

	rec = e.do(t, "GET", base+"/schedule", nil)
	current := decode[rotation.Week](t, rec)
	if current.Key != "2024-01-08" || current.Index != 0 {
		t.Errorf("current = %s index %d", current.Key, current.Index)
	}

	rec = e.do(t, "GET", base+"/schedule?week=nope", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad week: status = %d, want 400", rec.Code)
	}
}

func TestScheduleMonth(t *testing.T) {
	e := setupHandlers(t)
	h := createHousehold(t, e, map[string]any{"name": "Home", "members": []string{"A", "B"}})
	base := "/api/households/" + h.Code + "/schedule/month"

	rec := e.do(t, "GET", base+"?year=2024&month=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("month: status = %d", rec.Code)
	}
	got := decode[struct {
		Year  int             `json:"year"`
		Month int             `json:"month"`
		Weeks []rotation.Week `json:"weeks"`
	}](t, rec)
	if got.Year != 2024 || got.Month != 2 {
		t.Errorf("year/month = %d/%d", got.Year, got.Month)
	}
	if len(got.Weeks) != 5 || got.Weeks[0].Key != "2024-01-29" {
		t.Errorf("weeks = %d starting %s", len(got.Weeks), got.Weeks[0].Key)
	}

	rec = e.do(t, "GET", base+"?month=13", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad month: status = %d, want 400", rec.Code)
	}
}

func TestScheduleMonthDefaultsToHouseholdCalendar(t *testing.T) {
	e := setupHandlers(t)
	// 12:00 UTC on Jan 31 is already Feb 1 in Auckland
	e.now = time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)
	h := createHousehold(t, e, map[string]any{"name": "Home", "timezone": "Pacific/Auckland", "members": []string{"A"}})

	rec := e.do(t, "GET", "/api/households/"+h.Code+"/schedule/month", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("month: status = %d", rec.Code)
	}
	got := decode[struct {
		Year  int `json:"year"`
		Month int `json:"month"`
	}](t, rec)
	if got.Year != 2024 || got.Month != 2 {
		t.Errorf("year/month = %d/%d, want 2024/2", got.Year, got.Month)
	}
}

func TestSoleTaskLegacySlots(t *testing.T) {
	e := setupHandlers(t)
	h := createHousehold(t, e, map[string]any{"name": "Home", "members": []string{"A", "B", "C"}})
	base := "/api/households/" + h.Code

	a, b, c := h.Members[0].ID, h.Members[1].ID, h.Members[2].ID
	rec := e.do(t, "POST", base+"/sole-tasks", map[string]any{
		"title": "Bins",
		"legacy_slots": []map[string]any{
			{"member_id": a, "week": 2},
			{"member_id": b, "week": 1},
			{"member_id": c, "week": 3},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create sole task: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	task := decode[model.SoleTask](t, rec)
	if len(task.Responsible) != 3 || task.Responsible[0].Name != "B" || task.Responsible[1].Name != "A" {
		t.Errorf("responsible = %+v, want B, A, C", task.Responsible)
	}

	rec = e.do(t, "GET", base+"/schedule?week=2024-01-15", nil)
	w := decode[rotation.Week](t, rec)
	if w.Mapping()["Bins"] != "A" {
		t.Errorf("Bins = %q, want A", w.Mapping()["Bins"])
	}

	rec = e.do(t, "PUT", base+"/sole-tasks/"+itoa(task.ID), map[string]any{"responsible": []int64{}})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status = %d", rec.Code)
	}
	rec = e.do(t, "GET", base+"/schedule?week=2024-01-15", nil)
	w = decode[rotation.Week](t, rec)
	if w.Mapping()["Bins"] != rotation.Unassigned {
		t.Errorf("Bins = %q, want Unassigned", w.Mapping()["Bins"])
	}

	rec = e.do(t, "POST", base+"/sole-tasks", map[string]any{"title": "Lawn", "responsible": []int64{9999}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown member: status = %d, want 400", rec.Code)
	}
}

func TestChoreTitlesAreShared(t *testing.T) {
	e := setupHandlers(t)
	h := createHousehold(t, e, map[string]any{"name": "Home", "members": []string{"A", "B"}})
	base := "/api/households/" + h.Code

	post := func(path string, body map[string]any) int {
		t.Helper()
		return e.do(t, "POST", base+path, body).Code
	}
	if code := post("/chores", map[string]any{"title": "Bins"}); code != http.StatusCreated {
		t.Fatalf("create chore: status = %d", code)
	}
	if code := post("/sole-tasks", map[string]any{"title": "Lawn"}); code != http.StatusCreated {
		t.Fatalf("create sole task: status = %d", code)
	}

	tests := []struct {
		name string
		path string
		body map[string]any
	}{
		{"sole task reuses chore", "/sole-tasks", map[string]any{"title": " Bins ", "responsible": []int64{h.Members[1].ID}}},
		{"sole task reuses sole task", "/sole-tasks", map[string]any{"title": "Lawn"}},
		{"chore reuses sole task", "/chores", map[string]any{"title": "Lawn"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := post(tt.path, tt.body); code != http.StatusConflict {
				t.Errorf("status = %d, want 409", code)
			}
		})
	}

	// rows written around the API still surface as a conflict
	if _, err := e.cs.CreateSoleTask(h.ID, "Bins", nil); err != nil {
		t.Fatalf("seed clash: %v", err)
	}
	if rec := e.do(t, "GET", base+"/schedule", nil); rec.Code != http.StatusConflict {
		t.Errorf("schedule with clash: status = %d, want 409", rec.Code)
	}
}

func TestSoleTaskLegacyFailureLeavesNoTask(t *testing.T) {
	e := setupHandlers(t)
	h := createHousehold(t, e, map[string]any{"name": "Home", "members": []string{"A", "B"}})
	other := createHousehold(t, e, map[string]any{"name": "Next Door", "members": []string{"Z"}})
	base := "/api/households/" + h.Code

	rec := e.do(t, "POST", base+"/sole-tasks", map[string]any{
		"title": "Bins",
		"legacy_slots": []map[string]any{
			{"member_id": h.Members[0].ID, "week": 1},
			{"member_id": other.Members[0].ID, "week": 2},
		},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	tasks := decode[[]model.SoleTask](t, e.do(t, "GET", base+"/sole-tasks", nil))
	if len(tasks) != 0 {
		t.Errorf("tasks = %+v, want none", tasks)
	}
	// the title is still free after the failed import
	rec = e.do(t, "POST", base+"/sole-tasks", map[string]any{
		"title":        "Bins",
		"legacy_slots": []map[string]any{{"member_id": h.Members[1].ID, "week": 1}},
	})
	if rec.Code != http.StatusCreated {
		t.Errorf("retry: status = %d, want 201", rec.Code)
	}
}

func TestInstanceLifecycle(t *testing.T) {
	e := setupHandlers(t)
	h := createHousehold(t, e, map[string]any{"name": "Home", "members": []string{"A", "B"}})
	base := "/api/households/" + h.Code

	for _, title := range []string{"Dishes", "Vacuum"} {
		e.do(t, "POST", base+"/chores", map[string]string{"title": title})
	}

	rec := e.do(t, "POST", base+"/materialize", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("materialize: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	result := decode[schedule.MaterializeResult](t, rec)
	if result.Created != 2 || result.WeekKey != "2024-01-08" {
		t.Errorf("result = %+v", result)
	}

	rec = e.do(t, "GET", base+"/instances", nil)
	instances := decode[[]model.ChoreInstance](t, rec)
	if len(instances) != 2 {
		t.Fatalf("instances = %d, want 2", len(instances))
	}
	first, second := instances[0], instances[1]
	if first.AssignedName != "A" || second.AssignedName != "B" {
		t.Errorf("assigned = %q, %q", first.AssignedName, second.AssignedName)
	}

	rec = e.do(t, "POST", base+"/instances/"+itoa(first.ID)+"/toggle", nil)
	toggled := decode[model.ChoreInstance](t, rec)
	if !toggled.IsDone() {
		t.Error("expected done after toggle")
	}

	rec = e.do(t, "POST", base+"/instances/"+itoa(first.ID)+"/swap", map[string]int64{"with_id": second.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("swap: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	swapped := decode[[]model.ChoreInstance](t, rec)
	if swapped[0].AssignedName != "B" || swapped[1].AssignedName != "A" {
		t.Errorf("swapped = %q, %q", swapped[0].AssignedName, swapped[1].AssignedName)
	}

	rec = e.do(t, "PUT", base+"/instances/"+itoa(second.ID)+"/assignee", map[string]any{"member_id": nil})
	unassigned := decode[model.ChoreInstance](t, rec)
	if unassigned.AssignedMemberID != nil {
		t.Error("expected unassigned")
	}

	rec = e.do(t, "PUT", base+"/instances/"+itoa(second.ID)+"/due", map[string]string{"due_at": "2024-01-09T18:00:00Z"})
	if rec.Code != http.StatusOK {
		t.Fatalf("set due: status = %d", rec.Code)
	}

	listed := decode[[]chore.InstanceWithStatus](t, e.do(t, "GET", base+"/instances", nil))
	if len(listed) != 2 {
		t.Fatalf("listed = %d, want 2", len(listed))
	}
	if listed[0].Status != chore.StatusCompleted || listed[1].Status != chore.StatusOverdue {
		t.Errorf("statuses = %q, %q, want completed, overdue", listed[0].Status, listed[1].Status)
	}

	rec = e.do(t, "GET", base+"/instances/"+itoa(first.ID)+"/history", nil)
	history := decode[[]model.InstanceChange](t, rec)
	if len(history) != 2 {
		t.Fatalf("history = %d, want 2", len(history))
	}
	if history[0].ChangeType != model.ChangeCompleted || history[0].ChangedBy != "tester" {
		t.Errorf("history[0] = %+v", history[0])
	}
	if history[1].ChangeType != model.ChangeSwapped {
		t.Errorf("history[1] = %s, want swapped", history[1].ChangeType)
	}

	// materializing again keeps the manual edits
	rec = e.do(t, "POST", base+"/materialize", nil)
	again := decode[schedule.MaterializeResult](t, rec)
	if again.Created != 0 || again.Existing != 2 {
		t.Errorf("again = %+v", again)
	}
}

func TestSwapAcrossWeeksConflict(t *testing.T) {
	e := setupHandlers(t)
	h := createHousehold(t, e, map[string]any{"name": "Home", "members": []string{"A"}})
	base := "/api/households/" + h.Code

	due := time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)
	for _, wk := range []string{"2024-01-08", "2024-01-15"} {
		if _, err := e.is.CreateForWeek([]model.ChoreInstance{{
			HouseholdID: h.ID, WeekKey: wk, ChoreKey: "bundle-A", Kind: model.KindBundle, Title: "Dishes", DueAt: due,
		}}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	a := decode[[]model.ChoreInstance](t, e.do(t, "GET", base+"/instances?week=2024-01-08", nil))
	b := decode[[]model.ChoreInstance](t, e.do(t, "GET", base+"/instances?week=2024-01-17", nil))
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("seeded %d and %d instances", len(a), len(b))
	}

	rec := e.do(t, "POST", base+"/instances/"+itoa(a[0].ID)+"/swap", map[string]int64{"with_id": b[0].ID})
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
