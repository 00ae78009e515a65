package server

import (
	"encoding/json"
	"errors"

	"github.com/buragame/burad/internal/deck"
	"github.com/buragame/burad/internal/game"
)

// HandleFrame decodes one inbound frame and routes it to a room intent.
// Malformed JSON closes the session with 1003; a vanished room closes it with
// 1011. Rule errors go back to the originating session only; successful
// mutations trigger a room broadcast.
func (h *Hub) HandleFrame(s *Session, raw []byte) {
	var frame intentFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		h.logger.Warn("malformed frame", "player", s.playerID, "error", err)
		_ = s.CloseWithCode(CloseUnsupportedData, "malformed frame")
		return
	}
	h.metrics.FrameReceived(frame.Type)

	// Intents act on the identity bound at upgrade time. A frame that names a
	// different player is a spoof attempt, not a rule violation.
	if frame.PlayerID != "" && frame.PlayerID != s.playerID {
		h.logger.Warn("frame identity mismatch", "session", s.playerID, "frame", frame.PlayerID)
		_ = s.CloseWithCode(ClosePolicyViolation, "player_id mismatch")
		return
	}

	if s.roomID == "" {
		// Lobby sessions are read-only; the room list is pushed to them.
		return
	}

	room, ok := h.registry.Get(s.roomID)
	if !ok {
		_ = s.CloseWithCode(CloseInternalError, "room no longer exists")
		return
	}

	var err error
	switch frame.Type {
	case "play", "play_cards":
		cards := frame.Cards
		if len(cards) == 0 && frame.Card != nil {
			cards = []cardRef{*frame.Card}
		}
		played := make([]deck.Card, 0, len(cards))
		for _, ref := range cards {
			played = append(played, deck.New(ref.Suit, ref.Rank))
		}
		err = room.PlayCards(s.playerID, played, game.PlayOpts{
			RoundID:    frame.RoundID,
			TrickIndex: frame.TrickIndex,
		})

	case "declare":
		err = room.DeclareCombination(s.playerID, frame.Combo)

	case "request_early_turn":
		var granted []deck.Card
		suit := deck.Suit(frame.Suit)
		granted, err = room.RequestEarlyTurn(s.playerID, suit, frame.RoundID)
		if err == nil {
			h.SendRoomEvent(s.roomID, newEarlyTurnFrame(s.playerID, suit, granted))
		}

	default:
		h.logger.Debug("ignoring unknown frame type", "type", frame.Type, "player", s.playerID)
		return
	}

	if err != nil {
		var kind game.RuleError
		if errors.As(err, &kind) {
			h.metrics.RuleErrorRejected(string(kind))
			_ = s.Send(newErrorFrame(kind))
			return
		}
		h.logger.Error("intent failed", "type", frame.Type, "player", s.playerID, "error", err)
		_ = s.CloseWithCode(CloseInternalError, "internal error")
		return
	}

	h.BroadcastRoom(room)
}
