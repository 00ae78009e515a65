package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buragame/burad/internal/deck"
)

func TestToStateViewerScopedHands(t *testing.T) {
	room, _ := newStartedRoom(t, []string{"A", "B"}, testConfig(2))

	stateA := room.ToState("A")
	stateB := room.ToState("B")
	require.Len(t, stateA.Hands, 4)
	require.Len(t, stateB.Hands, 4)
	assert.NotEqual(t, stateA.Hands, stateB.Hands)
	require.NotNil(t, stateA.Me)
	assert.Equal(t, "A", stateA.Me.ID)

	spectator := room.ToState("ghost")
	assert.Empty(t, spectator.Hands)
	assert.Nil(t, spectator.Me)
	assert.Equal(t, 4, spectator.HandCounts["A"])
	assert.Equal(t, 4, spectator.HandCounts["B"])
}

func TestToStateCatalog(t *testing.T) {
	room, _ := newStartedRoom(t, []string{"A", "B"}, testConfig(2))

	state := room.ToState("A")
	require.Len(t, state.Cards, deck.Size)
	for i := 1; i < len(state.Cards); i++ {
		assert.Less(t, state.Cards[i-1].ID, state.Cards[i].ID)
	}
}

func TestToStateDiscardVisibility(t *testing.T) {
	cfg := testConfig(2)
	cfg.DiscardVisibility = DiscardFaceDown
	room, _ := newStartedRoom(t, []string{"A", "B"}, cfg)
	rig(room, "A", deck.Clubs, map[string][]deck.Card{
		"A": {card(deck.Spades, deck.Ace), card(deck.Diamonds, deck.Six)},
		"B": {card(deck.Spades, deck.King), card(deck.Diamonds, deck.Seven)},
	}, nil)

	require.NoError(t, room.PlayCards("A", []deck.Card{card(deck.Spades, deck.Ace)}, PlayOpts{}))
	require.NoError(t, room.PlayCards("B", []deck.Card{card(deck.Spades, deck.King)}, PlayOpts{}))

	state := room.ToState("A")
	assert.Empty(t, state.DiscardPile, "face-down tables never expose the pile")
	assert.Equal(t, 2, state.DiscardCount)
}

func TestToStateHidesDiscardedFollowFromOthers(t *testing.T) {
	cfg := testConfig(2)
	cfg.DiscardVisibility = DiscardFaceDown
	room, _ := newStartedRoom(t, []string{"A", "B"}, cfg)
	rig(room, "A", deck.Clubs, map[string][]deck.Card{
		"A": {card(deck.Spades, deck.Ace), card(deck.Diamonds, deck.Six)},
		"B": {card(deck.Spades, deck.King), card(deck.Diamonds, deck.Seven)},
	}, nil)

	require.NoError(t, room.PlayCards("A", []deck.Card{card(deck.Spades, deck.Ace)}, PlayOpts{}))
	// ♠K cannot beat ♠A, so B's play is a discard.
	require.NoError(t, room.PlayCards("B", []deck.Card{card(deck.Spades, deck.King)}, PlayOpts{}))

	// A sees B's discard face down: id only, no suit or rank.
	stateA := room.ToState("A")
	require.NotNil(t, stateA.Trick)
	require.Len(t, stateA.Trick.Plays, 2)
	followerCards := stateA.Trick.Plays[1].Cards
	require.Len(t, followerCards, 1)
	assert.False(t, followerCards[0].FaceUp)
	assert.Empty(t, followerCards[0].Suit)
	assert.NotEmpty(t, followerCards[0].CardID)

	// B sees their own play face up.
	stateB := room.ToState("B")
	assert.True(t, stateB.Trick.Plays[1].Cards[0].FaceUp)
	assert.Equal(t, deck.Spades, stateB.Trick.Plays[1].Cards[0].Suit)

	// The board view keeps hidden cards hidden too: card back only.
	require.NotNil(t, stateA.Board)
	require.Len(t, stateA.Board.Defender, 1)
	assert.False(t, stateA.Board.Defender[0].FaceUp)
	assert.Empty(t, stateA.Board.Defender[0].Suit)
	assert.Empty(t, stateA.Board.Defender[0].ImageURL)
	assert.NotEmpty(t, stateA.Board.Defender[0].BackImageURL)
}

func TestToStateTablePlayersClock(t *testing.T) {
	room, _ := newStartedRoom(t, []string{"A", "B"}, testConfig(2))

	state := room.ToState("A")
	require.Len(t, state.TablePlayers, 2)
	activeCount := 0
	for _, tp := range state.TablePlayers {
		if tp.IsActive {
			activeCount++
			assert.Equal(t, state.TurnPlayerID, tp.PlayerID)
			require.NotNil(t, tp.TurnTimerSec)
			assert.Equal(t, room.Config().TurnTimeoutSec, *tp.TurnTimerSec)
		} else {
			assert.Nil(t, tp.TurnTimerSec)
		}
	}
	assert.Equal(t, 1, activeCount)
}

func TestToStateRunsLazyChecks(t *testing.T) {
	room, clock := newStartedRoom(t, []string{"A", "B"}, testConfig(2))

	// Snapshotting alone advances the timeout transition.
	advance(t, clock, time.Duration(room.Config().TurnTimeoutSec+1)*time.Second)
	state := room.ToState("A")
	assert.Equal(t, 2, state.RoundNumber)
}
