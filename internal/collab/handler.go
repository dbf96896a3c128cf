package collab

import (
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Authorizer resolves the token a websocket client passes in its query
// string to a subject. An empty subject means anonymous access.
type Authorizer interface {
	Authorize(token string) (string, error)
}

// ServeWS upgrades /ws/wells/{wellId} requests and attaches the connection
// to the well's room.
func (h *Hub) ServeWS(authz Authorizer, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wellID := mux.Vars(r)["wellId"]

		userID, err := authz.Authorize(r.URL.Query().Get("token"))
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		if userID == "" {
			userID = "anon-" + uuid.New().String()[:8]
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			slog.Error("websocket accept", "error", err)
			return
		}

		client := NewClient(h, conn, userID, wellID, uuid.New().String())
		h.Register(client)

		ctx := r.Context()
		go client.WritePump(ctx)
		client.ReadPump(ctx)
	}
}
