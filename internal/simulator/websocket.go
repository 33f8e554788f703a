package simulator

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/controlpet/internal/logging"
	"github.com/muurk/controlpet/internal/protocol"
)

// websocketHandler upgrades requests on the bridge port. Each text or
// binary message is fed into a per-connection framer, so commands may be
// split across or packed into websocket messages.
func (s *Server) websocketHandler() http.Handler {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Error("Invalid WebSocket upgrade request",
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			return
		}

		p := newWSPeer(conn)
		s.track(p)
		defer s.untrack(p)

		framer := protocol.NewFramer()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				logging.Debug("WebSocket read ended", zap.String("remote_addr", p.remote()), zap.Error(err))
				return
			}
			s.feed(p, framer, data)
		}
	})
}
