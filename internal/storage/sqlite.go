// Package storage provides SQLite-based persistence for round scores and
// duel history. Uses the pure-Go modernc.org/sqlite driver to avoid CGO
// dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/reaction-duel/internal/duel"
)

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// ScoreEntry is a single finished round.
type ScoreEntry struct {
	ID        int64
	Player    string
	Score     int
	Outcome   string // "won" or "lost"
	Reason    string // "wrong button", "you are too far behind", "sequence completed"
	CreatedAt time.Time
}

// MatchRecord is one peer's view of a finished duel.
type MatchRecord struct {
	ID          int64
	MatchID     string
	Player      string
	Peer        string
	LocalScore  int
	RemoteScore sql.NullInt64 // Null when the peer never reported
	Outcome     string
	EndReason   string
	SharedSeed  uint32
	Duration    time.Duration
	CreatedAt   time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			player TEXT NOT NULL,
			score INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_scores_player ON scores(player);
		CREATE INDEX IF NOT EXISTS idx_scores_top ON scores(score DESC);

		CREATE TABLE IF NOT EXISTS duel_matches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id TEXT NOT NULL,
			player TEXT NOT NULL,
			peer TEXT NOT NULL DEFAULT '',
			local_score INTEGER NOT NULL DEFAULT 0,
			remote_score INTEGER,
			outcome TEXT NOT NULL,
			end_reason TEXT NOT NULL,
			shared_seed INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_duel_matches_match_id ON duel_matches(match_id);
		CREATE INDEX IF NOT EXISTS idx_duel_matches_player ON duel_matches(player);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveScore records a finished round.
// Returns the ID of the inserted record.
func (s *Store) SaveScore(player string, score int, outcome, reason string) (int64, error) {
	return saveScore(s.db, player, score, outcome, reason)
}

// TopScores retrieves the best N round scores across all players.
// An empty player returns everyone's scores.
func (s *Store) TopScores(player string, limit int) ([]ScoreEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, player, score, outcome, reason, created_at
		 FROM scores
		 WHERE ? = '' OR player = ?
		 ORDER BY score DESC, id ASC
		 LIMIT ?`,
		player, player, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query scores: %w", err)
	}
	defer rows.Close()

	var entries []ScoreEntry
	for rows.Next() {
		var e ScoreEntry
		var createdAt any
		if err := rows.Scan(&e.ID, &e.Player, &e.Score, &e.Outcome, &e.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// HighScore returns the best round score for the player.
// Returns 0 if no scores exist.
func (s *Store) HighScore(player string) (int, error) {
	var score sql.NullInt64
	err := s.db.QueryRow(
		"SELECT MAX(score) FROM scores WHERE player = ?",
		player,
	).Scan(&score)

	if err != nil {
		return 0, fmt.Errorf("storage: cannot query high score: %w", err)
	}

	if !score.Valid {
		return 0, nil
	}

	return int(score.Int64), nil
}

// ClearScores deletes all round scores for the player.
func (s *Store) ClearScores(player string) error {
	_, err := s.db.Exec("DELETE FROM scores WHERE player = ?", player)
	if err != nil {
		return fmt.Errorf("storage: cannot clear scores: %w", err)
	}
	return nil
}

// SaveMatch records one peer's view of a duel.
// Returns the ID of the inserted record.
func (s *Store) SaveMatch(rec MatchRecord) (int64, error) {
	return saveMatch(s.db, rec)
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func saveScore(db execer, player string, score int, outcome, reason string) (int64, error) {
	res, err := db.Exec(
		"INSERT INTO scores (player, score, outcome, reason) VALUES (?, ?, ?, ?)",
		player, score, outcome, reason,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save score: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

func saveMatch(db execer, rec MatchRecord) (int64, error) {
	res, err := db.Exec(
		`INSERT INTO duel_matches
		 (match_id, player, peer, local_score, remote_score, outcome, end_reason, shared_seed, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.MatchID,
		rec.Player,
		rec.Peer,
		rec.LocalScore,
		rec.RemoteScore,
		rec.Outcome,
		rec.EndReason,
		int64(rec.SharedSeed),
		rec.Duration.Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save match: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

const matchColumns = `id, match_id, player, peer, local_score, remote_score,
	outcome, end_reason, shared_seed, duration_ms, created_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (MatchRecord, error) {
	var rec MatchRecord
	var seed, durationMS int64
	var createdAt any

	err := row.Scan(
		&rec.ID,
		&rec.MatchID,
		&rec.Player,
		&rec.Peer,
		&rec.LocalScore,
		&rec.RemoteScore,
		&rec.Outcome,
		&rec.EndReason,
		&seed,
		&durationMS,
		&createdAt,
	)
	if err != nil {
		return MatchRecord{}, err
	}

	rec.SharedSeed = uint32(seed) //nolint:gosec // stored from a uint32
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	rec.CreatedAt = parseTime(createdAt)
	return rec, nil
}

// MatchByID retrieves every stored view of a match, oldest first.
// Returns nil if the match is unknown.
func (s *Store) MatchByID(matchID string) ([]MatchRecord, error) {
	return s.queryMatches(
		`SELECT `+matchColumns+` FROM duel_matches WHERE match_id = ? ORDER BY id ASC`,
		matchID,
	)
}

// RecentMatches retrieves the most recent duels. An empty player returns
// every player's matches.
func (s *Store) RecentMatches(player string, limit int) ([]MatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryMatches(
		`SELECT `+matchColumns+`
		 FROM duel_matches
		 WHERE ? = '' OR player = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		player, player, limit,
	)
}

func (s *Store) queryMatches(query string, args ...any) ([]MatchRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query matches: %w", err)
	}
	defer rows.Close()

	var results []MatchRecord
	for rows.Next() {
		rec, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		results = append(results, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return results, nil
}

// SaveMatchResult implements duel.ResultSaver.
// A played round is also recorded in the score table.
func (s *Store) SaveMatchResult(result duel.Result) error {
	rec := MatchRecord{
		MatchID:    string(result.MatchID),
		Player:     result.Player,
		Peer:       result.Peer,
		LocalScore: result.LocalScore,
		Outcome:    result.Outcome.String(),
		EndReason:  result.Reason.String(),
		SharedSeed: result.SharedSeed,
		Duration:   result.Duration,
	}
	if result.RemoteKnown {
		rec.RemoteScore = sql.NullInt64{Int64: int64(result.RemoteScore), Valid: true}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}

	if _, err := saveMatch(tx, rec); err != nil {
		return errors.Join(err, tx.Rollback())
	}

	if result.Round.Terminal() {
		_, err := saveScore(tx, result.Player, result.Round.Score, result.Round.Kind.String(), result.Round.Reason.String())
		if err != nil {
			return errors.Join(err, tx.Rollback())
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit match: %w", err)
	}
	return nil
}

// Ensure Store implements ResultSaver
var _ duel.ResultSaver = (*Store)(nil)

// PlayerStats contains aggregated duel statistics for a player.
type PlayerStats struct {
	Player      string
	Matches     int
	Wins        int
	Losses      int
	Draws       int
	Unavailable int
	Abandoned   int
	BestScore   int
	AvgScore    float64
	LastPlayed  time.Time
}

// Stats retrieves aggregated statistics for a player.
func (s *Store) Stats(player string) (*PlayerStats, error) {
	stats := &PlayerStats{Player: player}

	rows, err := s.db.Query(
		`SELECT outcome, COUNT(*) FROM duel_matches WHERE player = ? GROUP BY outcome`,
		player,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get player stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		stats.Matches += n
		switch duel.ParseMatchOutcome(outcome) {
		case duel.MatchWon:
			stats.Wins += n
		case duel.MatchLost:
			stats.Losses += n
		case duel.MatchDraw:
			stats.Draws += n
		case duel.MatchUnavailable:
			stats.Unavailable += n
		case duel.MatchAbandoned:
			stats.Abandoned += n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	var lastPlayed any
	err = s.db.QueryRow(
		`SELECT COALESCE(MAX(local_score), 0), COALESCE(AVG(local_score), 0), MAX(created_at)
		 FROM duel_matches WHERE player = ?`,
		player,
	).Scan(&stats.BestScore, &stats.AvgScore, &lastPlayed)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get player stats: %w", err)
	}
	stats.LastPlayed = parseTime(lastPlayed)

	return stats, nil
}

// parseTime handles both time.Time and string datetime values.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
