package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buragame/burad/internal/game"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func result(matchID, winnerID string, participants ...game.MatchParticipant) *game.MatchResult {
	winners := []string{}
	losers := []string{}
	for _, p := range participants {
		if p.PlayerID == winnerID {
			winners = append(winners, p.PlayerID)
		} else {
			losers = append(losers, p.PlayerID)
		}
	}
	return &game.MatchResult{
		MatchID:      matchID,
		RoomID:       "room1",
		VariantKey:   "classic_2p",
		WinnerID:     winnerID,
		Winners:      winners,
		Losers:       losers,
		TotalRounds:  3,
		Participants: participants,
	}
}

func TestSaveMatchAndLeaderboard(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveMatch(result("m1", "alice",
		game.MatchParticipant{PlayerID: "alice", Name: "Alice", Score: 4, GameWins: 2},
		game.MatchParticipant{PlayerID: "bob", Name: "Bob", Score: 12, GameWins: 1},
	)))
	require.NoError(t, s.SaveMatch(result("m2", "alice",
		game.MatchParticipant{PlayerID: "alice", Name: "Alice", Score: 0, GameWins: 3},
		game.MatchParticipant{PlayerID: "carol", Name: "Carol", Score: 14, GameWins: 0},
	)))
	require.NoError(t, s.SaveMatch(result("m3", "bob",
		game.MatchParticipant{PlayerID: "alice", Name: "Alice", Score: 12, GameWins: 1},
		game.MatchParticipant{PlayerID: "bob", Name: "Bob", Score: 6, GameWins: 2},
	)))

	rows, err := s.Leaderboard(10)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "alice", rows[0].PlayerID)
	assert.Equal(t, 3, rows[0].MatchesPlayed)
	assert.Equal(t, 2, rows[0].MatchesWon)
	assert.Equal(t, 6, rows[0].RoundsWon)

	assert.Equal(t, "bob", rows[1].PlayerID)
	assert.Equal(t, 1, rows[1].MatchesWon)

	assert.Equal(t, "carol", rows[2].PlayerID)
	assert.Equal(t, 0, rows[2].MatchesWon)
}

func TestSaveMatchDuplicateIDRejected(t *testing.T) {
	s := openTestStore(t)

	res := result("dup", "alice",
		game.MatchParticipant{PlayerID: "alice", Name: "Alice", Score: 0, GameWins: 1},
	)
	require.NoError(t, s.SaveMatch(res))
	assert.Error(t, s.SaveMatch(res), "match_id is a primary key")
}

func TestLeaderboardLimit(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveMatch(result("m1", "alice",
		game.MatchParticipant{PlayerID: "alice", Name: "Alice", GameWins: 1},
		game.MatchParticipant{PlayerID: "bob", Name: "Bob"},
	)))

	rows, err := s.Leaderboard(1)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = s.Leaderboard(0) // falls back to the default cap
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestLeaderboardEmpty(t *testing.T) {
	s := openTestStore(t)

	rows, err := s.Leaderboard(10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
