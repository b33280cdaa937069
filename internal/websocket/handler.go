package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/chorewheel/internal/household"
)

// HouseholdExists reports whether a normalized household code is known.
type HouseholdExists func(code string) (bool, error)

// HandleWebSocket upgrades the connection and subscribes it to the household
// named by the ?household= query parameter.
func HandleWebSocket(hub *Hub, exists HouseholdExists, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := household.NormalizeCode(r.URL.Query().Get("household"))
		if len(code) != household.CodeLength {
			http.Error(w, "household code required", http.StatusBadRequest)
			return
		}
		ok, err := exists(code)
		if err != nil {
			logger.Error("websocket household lookup", "error", err)
			http.Error(w, "failed to look up household", http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, "household not found", http.StatusNotFound)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // household LAN, any origin
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, code)
		client.Run(r.Context())
	}
}
