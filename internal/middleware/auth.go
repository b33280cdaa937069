package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dukerupert/chorewheel/internal/auth"
	"github.com/dukerupert/chorewheel/internal/store"
)

// ActorHeader names the person making a change; it ends up in instance history.
const ActorHeader = "X-Chorewheel-Actor"

// RequireHousehold resolves the {code} path value to a household and populates
// the request's HouseholdContext. Unknown codes get a JSON 404.
func RequireHousehold(householdStore *store.HouseholdStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h, err := householdStore.GetByCode(r.PathValue("code"))
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to get household")
				return
			}
			if h == nil {
				writeError(w, http.StatusNotFound, "household not found")
				return
			}

			hc := auth.HouseholdContext{
				HouseholdID: h.ID,
				Code:        h.Code,
				Actor:       strings.TrimSpace(r.Header.Get(ActorHeader)),
			}
			next.ServeHTTP(w, r.WithContext(auth.WithHousehold(r.Context(), hc)))
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
