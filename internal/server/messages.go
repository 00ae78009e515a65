package server

import (
	"github.com/buragame/burad/internal/deck"
	"github.com/buragame/burad/internal/game"
)

// Inbound frame. One JSON object per message; fields are populated per type.
// Unknown types are ignored, malformed frames close the session with 1003.
type intentFrame struct {
	Type       string    `json:"type"`
	PlayerID   string    `json:"player_id"`
	Cards      []cardRef `json:"cards"`
	Card       *cardRef  `json:"card"` // legacy single-card form, promoted to Cards
	Combo      string    `json:"combo"`
	Suit       string    `json:"suit"`
	RoundID    string    `json:"roundId"`
	TrickIndex *int      `json:"trickIndex"`
}

// cardRef identifies a card by (suit, rank) on the wire.
type cardRef struct {
	Suit deck.Suit `json:"suit"`
	Rank deck.Rank `json:"rank"`
}

// Outbound frames.

type stateFrame struct {
	Type    string          `json:"type"`
	Payload *game.GameState `json:"payload"`
}

func newStateFrame(state *game.GameState) stateFrame {
	return stateFrame{Type: "state", Payload: state}
}

type roomsFrame struct {
	Type    string        `json:"type"`
	Payload []RoomSummary `json:"payload"`
}

func newRoomsFrame(summaries []RoomSummary) roomsFrame {
	return roomsFrame{Type: "rooms", Payload: summaries}
}

type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func newErrorFrame(kind game.RuleError) errorFrame {
	return errorFrame{Type: "error", Error: string(kind)}
}

// earlyTurnFrame is broadcast to the whole room before the state frame that
// follows a granted early-turn request.
type earlyTurnFrame struct {
	Type     string      `json:"type"`
	PlayerID string      `json:"playerId"`
	Suit     deck.Suit   `json:"suit"`
	CardIDs  []string    `json:"cardIds"`
	Ranks    []deck.Rank `json:"ranks"`
}

func newEarlyTurnFrame(playerID string, suit deck.Suit, cards []deck.Card) earlyTurnFrame {
	frame := earlyTurnFrame{
		Type:     "EARLY_TURN_GRANTED",
		PlayerID: playerID,
		Suit:     suit,
		CardIDs:  make([]string, 0, len(cards)),
		Ranks:    make([]deck.Rank, 0, len(cards)),
	}
	for _, card := range cards {
		frame.CardIDs = append(frame.CardIDs, card.ID)
		frame.Ranks = append(frame.Ranks, card.Rank)
	}
	return frame
}
