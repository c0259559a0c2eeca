package server

import (
	"net/http"

	"github.com/gorilla/websocket"
	"k8s.io/klog/v2"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// local tool; allow all
		return true
	},
}

func (s *Server) handleWSResults(w http.ResponseWriter, r *http.Request) {
	s.handleWSHub(w, r, s.wsResults)
}

func (s *Server) handleWSHub(w http.ResponseWriter, r *http.Request, hub *WSHub) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		klog.V(2).InfoS("WebSocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	client := hub.Add(conn)
	_ = client.Send(WSMessage{Type: "hello"})

	// Keep reading until client disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			hub.Remove(client)
			return
		}
	}
}
