package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/buragame/burad/internal/game"
)

// MatchSink receives finished matches exactly once each.
type MatchSink interface {
	SaveMatch(result *game.MatchResult) error
}

type graceKey struct {
	roomID   string
	playerID string
}

// Hub tracks live sessions, fans room state out to viewers and reaps players
// whose sockets stayed dead past the disconnect grace.
type Hub struct {
	mu           sync.Mutex
	registry     *Registry
	rooms        map[string]map[string]*Session // roomID -> playerID -> session
	lobby        map[*Session]struct{}
	disconnected map[graceKey]time.Time

	sink    MatchSink
	metrics *Metrics
	logger  *log.Logger
	clock   quartz.Clock

	grace        time.Duration
	reapInterval time.Duration
}

// NewHub wires the hub to a registry and an optional match sink.
func NewHub(registry *Registry, sink MatchSink, metrics *Metrics, logger *log.Logger, clock quartz.Clock, grace, reapInterval time.Duration) *Hub {
	return &Hub{
		registry:     registry,
		rooms:        make(map[string]map[string]*Session),
		lobby:        make(map[*Session]struct{}),
		disconnected: make(map[graceKey]time.Time),
		sink:         sink,
		metrics:      metrics,
		logger:       logger.WithPrefix("hub"),
		clock:        clock,
		grace:        grace,
		reapInterval: reapInterval,
	}
}

// AttachRoom registers a room session. A reconnect within the grace window
// clears the pending reap entry. The latest socket for a player wins; any
// previous one is closed.
func (h *Hub) AttachRoom(s *Session) {
	h.mu.Lock()
	sessions := h.rooms[s.roomID]
	if sessions == nil {
		sessions = make(map[string]*Session)
		h.rooms[s.roomID] = sessions
	}
	prev := sessions[s.playerID]
	sessions[s.playerID] = s
	delete(h.disconnected, graceKey{roomID: s.roomID, playerID: s.playerID})
	h.mu.Unlock()

	if prev != nil {
		_ = prev.CloseWithCode(ClosePolicyViolation, "superseded by a newer connection")
	}
	if room, ok := h.registry.Get(s.roomID); ok {
		room.SetDisconnected(s.playerID, false)
	}
	h.metrics.SessionOpened()
	h.logger.Info("session attached", "room", s.roomID, "player", s.playerID)
}

// AttachLobby registers a lobby session and pushes the current room list.
func (h *Hub) AttachLobby(s *Session) {
	h.mu.Lock()
	h.lobby[s] = struct{}{}
	h.mu.Unlock()

	h.metrics.SessionOpened()
	_ = s.Send(newRoomsFrame(h.registry.Summaries()))
}

// Detach unregisters a session. For a room session whose game has started the
// player enters the disconnect grace window; otherwise they leave the room
// immediately and an emptied room is deleted.
func (h *Hub) Detach(s *Session) {
	if s.roomID == "" {
		h.mu.Lock()
		if _, ok := h.lobby[s]; !ok {
			h.mu.Unlock()
			return
		}
		delete(h.lobby, s)
		h.mu.Unlock()
		h.metrics.SessionClosed()
		return
	}

	h.mu.Lock()
	sessions := h.rooms[s.roomID]
	if sessions == nil || sessions[s.playerID] != s {
		// Superseded by a newer socket for the same player.
		h.mu.Unlock()
		h.metrics.SessionClosed()
		return
	}
	delete(sessions, s.playerID)
	if len(sessions) == 0 {
		delete(h.rooms, s.roomID)
	}
	h.mu.Unlock()
	h.metrics.SessionClosed()

	room, ok := h.registry.Get(s.roomID)
	if !ok {
		return
	}

	if room.Started() {
		h.mu.Lock()
		h.disconnected[graceKey{roomID: s.roomID, playerID: s.playerID}] = h.clock.Now()
		h.mu.Unlock()
		room.SetDisconnected(s.playerID, true)
		h.logger.Info("player disconnected, grace started", "room", s.roomID, "player", s.playerID)
		h.BroadcastRoom(room)
		return
	}

	room.RemovePlayer(s.playerID)
	h.logger.Info("player left room", "room", s.roomID, "player", s.playerID)
	if room.PlayerCount() == 0 {
		h.registry.Delete(s.roomID)
	} else {
		h.BroadcastRoom(room)
	}
	h.BroadcastLobby()
}

// RunReaper removes players whose grace window expired. It blocks until ctx
// is done.
func (h *Hub) RunReaper(ctx context.Context) error {
	ticker := h.clock.TickerFunc(ctx, h.reapInterval, func() error {
		h.reap()
		return nil
	}, "reaper")
	if err := ticker.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (h *Hub) reap() {
	now := h.clock.Now()

	h.mu.Lock()
	var expired []graceKey
	for key, since := range h.disconnected {
		if now.Sub(since) >= h.grace {
			expired = append(expired, key)
		}
	}
	for _, key := range expired {
		delete(h.disconnected, key)
	}
	h.mu.Unlock()

	for _, key := range expired {
		room, ok := h.registry.Get(key.roomID)
		if !ok {
			continue
		}
		room.RemovePlayer(key.playerID)
		h.logger.Info("player reaped after grace", "room", key.roomID, "player", key.playerID)
		if room.PlayerCount() == 0 {
			h.registry.Delete(key.roomID)
		} else {
			h.BroadcastRoom(room)
		}
		h.BroadcastLobby()
	}
}

// BroadcastRoom sends each attached viewer their own projection of the room
// and hands a finished match to the sink.
func (h *Hub) BroadcastRoom(room *game.Room) {
	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.rooms[room.ID()]))
	for _, s := range h.rooms[room.ID()] {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		_ = s.Send(newStateFrame(room.ToState(s.playerID)))
	}

	if result, ok := room.ConsumeMatchResult(); ok {
		h.metrics.MatchCompleted()
		if h.sink != nil {
			if err := h.sink.SaveMatch(result); err != nil {
				h.logger.Error("failed to persist match", "match", result.MatchID, "error", err)
			}
		}
	}
}

// BroadcastLobby pushes the room list to every lobby session.
func (h *Hub) BroadcastLobby() {
	summaries := h.registry.Summaries()

	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.lobby))
	for s := range h.lobby {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		_ = s.Send(newRoomsFrame(summaries))
	}
}

// SendRoomEvent sends an untyped frame to every session in a room.
func (h *Hub) SendRoomEvent(roomID string, frame any) {
	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.rooms[roomID]))
	for _, s := range h.rooms[roomID] {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		_ = s.Send(frame)
	}
}
