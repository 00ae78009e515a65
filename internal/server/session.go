package server

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

// Close codes used by the server.
const (
	ClosePolicyViolation = websocket.ClosePolicyViolation // 1008, room unknown or seat rejected
	CloseInternalError   = websocket.CloseInternalServerErr
	CloseUnsupportedData = websocket.CloseUnsupportedData // 1003, malformed frame
)

var ErrSessionClosed = websocket.ErrCloseSent

// Session wraps one websocket connection. Outbound frames go through a
// buffered channel drained by the write pump; a full buffer means the client
// has stopped reading and the session is closed.
type Session struct {
	conn      *websocket.Conn
	send      chan any
	playerID  string
	roomID    string // empty for lobby sessions
	hub       *Hub
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	closeCode int
	closeText string
}

// NewSession creates a session wrapper. roomID is empty for lobby sessions.
func NewSession(conn *websocket.Conn, playerID, roomID string, hub *Hub, logger *log.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())

	return &Session{
		conn:     conn,
		send:     make(chan any, 64),
		playerID: playerID,
		roomID:   roomID,
		hub:      hub,
		logger:   logger.WithPrefix("session"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// PlayerID returns the identity bound at upgrade time.
func (s *Session) PlayerID() string { return s.playerID }

// RoomID returns the room this session is attached to, or "" for the lobby.
func (s *Session) RoomID() string { return s.roomID }

// Start launches the read and write pumps. The read pump blocks until the
// connection drops, so callers that need to wait for teardown should call
// Start from the handler goroutine.
func (s *Session) Start() {
	go s.writePump()
	s.readPump()
}

// Send queues an outbound frame without blocking. A full send buffer closes
// the session; a slow consumer must not stall room broadcasts.
func (s *Session) Send(frame any) error {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Debug("send on closed session", "error", r)
		}
	}()

	select {
	case s.send <- frame:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		s.logger.Warn("send buffer full, closing session", "player", s.playerID)
		_ = s.CloseWithCode(CloseInternalError, "send buffer overflow")
		return ErrSessionClosed
	}
}

// Close tears the session down without a close frame.
func (s *Session) Close() error {
	return s.CloseWithCode(0, "")
}

// CloseWithCode sends a close frame with the given code before tearing the
// connection down. A zero code skips the close frame.
func (s *Session) CloseWithCode(code int, text string) error {
	var err error
	s.closeOnce.Do(func() {
		s.closeCode = code
		s.closeText = text
		if code != 0 {
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(code, text))
		}
		s.cancel()
		close(s.send)
		err = s.conn.Close()
	})
	return err
}

func (s *Session) readPump() {
	defer func() {
		s.hub.Detach(s)
		_ = s.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				s.logger.Error("websocket error", "player", s.playerID, "error", err)
			}
			return
		}

		s.hub.HandleFrame(s, raw)
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := s.conn.WriteJSON(frame); err != nil {
				s.logger.Error("failed to write frame", "player", s.playerID, "error", err)
				return
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.ctx.Done():
			return
		}
	}
}
