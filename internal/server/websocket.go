package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/zoowalk/internal/core/observability/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.closed.Load() {
		http.Error(w, ErrServerClosed.Error(), http.StatusServiceUnavailable)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}

	c := newClient(conn, s.logger)
	// Register under the scene lock so the snapshot and the first frame the
	// client receives line up.
	s.scene.Snapshot(s.Ticks(), func(msg Outbound) {
		data, err := json.Marshal(msg)
		if err != nil {
			s.logger.Error("encode snapshot", log.Error(err))
			return
		}
		c.enqueue(data)
		s.hub.add(c)
	})

	c.logger.Info("client connected",
		log.String("remote_addr", conn.RemoteAddr().String()),
		log.Int("total_clients", s.hub.len()))

	go c.writeLoop(s.config.WriteTimeout)
	s.readLoop(c)
}

func (s *Server) readLoop(c *client) {
	defer func() {
		s.hub.remove(c)
		s.keys.Release(c.id)
		c.close()
		c.logger.Info("client disconnected", log.Int("total_clients", s.hub.len()))
	}()

	c.conn.SetReadLimit(s.config.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("read failed", log.Error(err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var in Inbound
		if err := json.Unmarshal(data, &in); err != nil {
			c.logger.Warn("ignoring message", log.Error(ErrInvalidMessage), log.String("cause", err.Error()))
			continue
		}
		switch in.Type {
		case MessageKeys:
			s.keys.Set(c.id, in.Keys)
		default:
			c.logger.Warn("unknown message type", log.String("type", string(in.Type)))
		}
	}
}
