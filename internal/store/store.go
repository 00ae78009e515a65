// Package store persists finished matches to SQLite and serves aggregate
// player statistics.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/buragame/burad/internal/game"
)

// Store wraps the match-history database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS matches (
			match_id TEXT PRIMARY KEY,
			room_id TEXT NOT NULL,
			variant TEXT NOT NULL,
			winner_id TEXT,
			total_rounds INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS match_players (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id TEXT NOT NULL,
			player_id TEXT NOT NULL,
			name TEXT NOT NULL,
			score INTEGER NOT NULL,
			game_wins INTEGER NOT NULL,
			won INTEGER NOT NULL,
			FOREIGN KEY (match_id) REFERENCES matches(match_id)
		)
	`)
	return err
}

// SaveMatch records one finished match and its participants in a single
// transaction.
func (s *Store) SaveMatch(result *game.MatchResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO matches (match_id, room_id, variant, winner_id, total_rounds)
		VALUES (?, ?, ?, ?, ?)
	`, result.MatchID, result.RoomID, result.VariantKey, result.WinnerID, result.TotalRounds)
	if err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}

	won := make(map[string]bool, len(result.Winners))
	for _, id := range result.Winners {
		won[id] = true
	}
	for _, p := range result.Participants {
		_, err = tx.Exec(`
			INSERT INTO match_players (match_id, player_id, name, score, game_wins, won)
			VALUES (?, ?, ?, ?, ?, ?)
		`, result.MatchID, p.PlayerID, p.Name, p.Score, p.GameWins, won[p.PlayerID])
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}

	return tx.Commit()
}

// LeaderboardRow is one player's aggregate line.
type LeaderboardRow struct {
	PlayerID      string `json:"player_id"`
	Name          string `json:"name"`
	MatchesPlayed int    `json:"matches_played"`
	MatchesWon    int    `json:"matches_won"`
	RoundsWon     int    `json:"rounds_won"`
}

// Leaderboard returns up to limit players ordered by matches won, then
// rounds won.
func (s *Store) Leaderboard(limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT player_id,
		       MAX(name),
		       COUNT(*),
		       SUM(won),
		       SUM(game_wins)
		FROM match_players
		GROUP BY player_id
		ORDER BY SUM(won) DESC, SUM(game_wins) DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeaderboardRow
	for rows.Next() {
		var row LeaderboardRow
		if err := rows.Scan(&row.PlayerID, &row.Name, &row.MatchesPlayed, &row.MatchesWon, &row.RoundsWon); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
