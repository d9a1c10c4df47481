package feed

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Subscribers only listen, so anything they send is discarded.
const wsReadLimit = 512

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// ServeWS upgrades r and keeps the connection subscribed until the peer
// hangs up or the hub closes it.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}
	ws.SetReadLimit(wsReadLimit)

	// The welcome goes out before registration so it never interleaves
	// with a broadcast.
	if err := ws.WriteMessage(websocket.TextMessage, welcomeMessage("websocket", h.Stats().WSClients+1)); err != nil {
		_ = ws.Close()
		return
	}
	h.AddWS(ws)
	log := h.logger.With().Str("remote", r.RemoteAddr).Logger()
	log.Debug().Msg("websocket client connected")
	defer func() {
		h.RemoveWS(ws)
		log.Debug().Msg("websocket client disconnected")
	}()

	for {
		if _, _, err := ws.NextReader(); err != nil {
			return
		}
	}
}

// WSHandler mounts ServeWS on a gin route.
func WSHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		hub.ServeWS(c.Writer, c.Request)
	}
}
