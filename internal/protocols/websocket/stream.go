// Package websocket pushes viewer events over a WebSocket connection
package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"mangareader/pkg/logger"
	"mangareader/pkg/models"
)

const (
	writeWait      = 10 * time.Second    // Time allowed to write a message
	pongWait       = 60 * time.Second    // Time allowed to read the next pong
	pingPeriod     = (pongWait * 9) / 10 // Send pings to client
	maxMessageSize = 512                 // Clients only send control frames
)

// viewerStream owns one connection. The write side drains the event
// channel; the read side only exists to process pongs and notice closes.
type viewerStream struct {
	conn   *websocket.Conn
	viewer *models.Viewer
	events <-chan models.ViewerEvent
	cancel func()
	done   chan struct{}
}

func newViewerStream(conn *websocket.Conn, viewer *models.Viewer, events <-chan models.ViewerEvent, cancel func()) *viewerStream {
	return &viewerStream{
		conn:   conn,
		viewer: viewer,
		events: events,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// serve blocks until the connection ends, then releases the subscription
func (s *viewerStream) serve() {
	go s.readPump()
	s.writePump()

	s.cancel()
	s.conn.Close()
	logger.WebSocket("disconnected", s.viewer.UserID)
}

// readPump reads until the client goes away
func (s *viewerStream) readPump() {
	defer close(s.done)

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warnf("WebSocket read error for user %s: %v", s.viewer.UserID, err)
			}
			return
		}
	}
}

// writePump forwards events and keeps the connection alive with pings
func (s *viewerStream) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-s.events:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			revoked := event.Type == models.EventSessionRevoked
			if revoked && !s.revokedBy(event) {
				continue
			}

			data, err := json.Marshal(event)
			if err != nil {
				logger.Errorf("Failed to marshal event: %v", err)
				continue
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

			if revoked {
				s.conn.SetWriteDeadline(time.Now().Add(writeWait))
				s.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "session revoked"))
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.done:
			return
		}
	}
}

// revokedBy reports whether a session_revoked event targets this stream's
// token. Events without a token ID revoke every stream of the user.
func (s *viewerStream) revokedBy(event models.ViewerEvent) bool {
	tokenID, _ := event.Data[models.EventDataTokenID].(string)
	return tokenID == "" || tokenID == s.viewer.TokenID
}
