package websockets

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
)

// NewUpgrader returns an upgrader accepting the given browser origins. Requests
// without an Origin header, such as from the CLI, are always accepted. A "*"
// entry accepts every origin.
func NewUpgrader(origins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin)
		},
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			http.Error(w, reason.Error(), status)
		},
	}
}
