package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/coordinator"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,
	// Origin policy is the deployment's concern; the coordinator carries no
	// authentication of its own.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWs upgrades the request to a websocket, assigns the connection its
// participant identity and starts the read/write pumps. One connection is
// one participant; the identity dies with the connection.
func ServeWs(hub *coordinator.Coordinator, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		client := coordinator.NewClient(uuid.NewString(), conn, hub, log)
		hub.Register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}

type healthResponse struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
}

// Health reports process liveness plus active room and connection counts.
func Health(hub *coordinator.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := hub.RoomSnapshot()
		writeJSON(w, healthResponse{
			Status:      "ok",
			Rooms:       len(snap.Rooms),
			Connections: snap.Connections,
		})
	}
}

// Rooms returns the current member count per room code.
func Rooms(hub *coordinator.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, hub.RoomSnapshot().Rooms)
	}
}

// Routes wires the signaling and diagnostic endpoints onto a fresh mux.
func Routes(hub *coordinator.Coordinator, log *logging.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", ServeWs(hub, log))
	mux.HandleFunc("/health", Health(hub))
	mux.HandleFunc("/rooms", Rooms(hub))
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}
