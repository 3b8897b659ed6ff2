// Package storage provides SQLite-based persistence for match results and
// tournament outcomes. Uses the pure-Go modernc.org/sqlite driver to avoid
// CGO dependencies.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/pong-arena/internal/multiplayer"
	"github.com/vovakirdan/pong-arena/internal/protocol"
)

// timeLayout is how timestamps are stored. Fixed-width UTC keeps text
// ordering chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// MatchEntry is one persisted match.
type MatchEntry struct {
	ID           int64     `json:"id"`
	RoomID       string    `json:"room_id"`
	Round        int       `json:"round"`
	Player1ID    string    `json:"player1_id"`
	Player1Name  string    `json:"player1_name"`
	Player2ID    string    `json:"player2_id"`
	Player2Name  string    `json:"player2_name"`
	Score1       int       `json:"score1"`
	Score2       int       `json:"score2"`
	WinnerID     string    `json:"winner_id"`
	IsTournament bool      `json:"is_tournament"`
	Forfeit      bool      `json:"forfeit"`
	EndedAt      time.Time `json:"ended_at"`
}

// WinnerName returns the display name of the winner.
func (m MatchEntry) WinnerName() string {
	switch m.WinnerID {
	case m.Player1ID:
		return m.Player1Name
	case m.Player2ID:
		return m.Player2Name
	default:
		return m.WinnerID
	}
}

// TournamentEntry is one persisted tournament outcome.
type TournamentEntry struct {
	ID           int64     `json:"id"`
	RoomID       string    `json:"room_id"`
	Flavor       string    `json:"flavor"`
	ChampionID   string    `json:"champion_id"`
	ChampionName string    `json:"champion_name"`
	Players      int       `json:"players"`
	Matches      int       `json:"matches"`
	Cancelled    bool      `json:"cancelled"`
	Reason       string    `json:"reason"`
	EndedAt      time.Time `json:"ended_at"`
}

// PlayerStats aggregates the record of one player.
type PlayerStats struct {
	PlayerID   string    `json:"player_id"`
	Matches    int       `json:"matches"`
	Wins       int       `json:"wins"`
	Forfeits   int       `json:"forfeits"` // matches won or lost by forfeit
	Titles     int       `json:"titles"`   // tournaments won
	LastPlayed time.Time `json:"last_played"`
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
	// One connection serialises writes from concurrent rooms.
	db.SetMaxOpenConns(1)

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
		CREATE TABLE IF NOT EXISTS matches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			room_id TEXT NOT NULL,
			round INTEGER NOT NULL DEFAULT 0,
			player1_id TEXT NOT NULL,
			player1_name TEXT NOT NULL,
			player2_id TEXT NOT NULL,
			player2_name TEXT NOT NULL,
			score1 INTEGER NOT NULL DEFAULT 0,
			score2 INTEGER NOT NULL DEFAULT 0,
			winner_id TEXT NOT NULL,
			is_tournament INTEGER NOT NULL DEFAULT 0,
			forfeit INTEGER NOT NULL DEFAULT 0,
			ended_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_matches_room ON matches(room_id);
		CREATE INDEX IF NOT EXISTS idx_matches_player1 ON matches(player1_id);
		CREATE INDEX IF NOT EXISTS idx_matches_player2 ON matches(player2_id);
		CREATE INDEX IF NOT EXISTS idx_matches_ended ON matches(ended_at DESC);

		CREATE TABLE IF NOT EXISTS tournaments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			room_id TEXT NOT NULL,
			flavor TEXT NOT NULL,
			champion_id TEXT,
			champion_name TEXT,
			players INTEGER NOT NULL DEFAULT 0,
			matches INTEGER NOT NULL DEFAULT 0,
			cancelled INTEGER NOT NULL DEFAULT 0,
			reason TEXT,
			ended_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_tournaments_champion ON tournaments(champion_id);
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

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) time.Time {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// SaveMatch records a finished match and returns its row ID.
func (s *Store) SaveMatch(rec protocol.MatchRecord) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO matches
		 (room_id, round, player1_id, player1_name, player2_id, player2_name,
		  score1, score2, winner_id, is_tournament, forfeit, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RoomID,
		rec.Round,
		rec.Participant1.ID,
		rec.Participant1.Name,
		rec.Participant2.ID,
		rec.Participant2.Name,
		rec.Score1,
		rec.Score2,
		rec.WinnerID,
		rec.IsTournament,
		rec.Forfeit,
		formatTime(rec.EndedAt),
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

// SaveMatchResult implements multiplayer.MatchResultSaver.
func (s *Store) SaveMatchResult(rec protocol.MatchRecord) error {
	_, err := s.SaveMatch(rec)
	return err
}

const matchColumns = `id, room_id, round, player1_id, player1_name, player2_id, player2_name,
	score1, score2, winner_id, is_tournament, forfeit, ended_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanMatch(row scanner) (MatchEntry, error) {
	var m MatchEntry
	var endedAt string
	err := row.Scan(
		&m.ID,
		&m.RoomID,
		&m.Round,
		&m.Player1ID,
		&m.Player1Name,
		&m.Player2ID,
		&m.Player2Name,
		&m.Score1,
		&m.Score2,
		&m.WinnerID,
		&m.IsTournament,
		&m.Forfeit,
		&endedAt,
	)
	m.EndedAt = parseTime(endedAt)
	return m, err
}

func (s *Store) queryMatches(query string, args ...any) ([]MatchEntry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query matches: %w", err)
	}
	defer rows.Close()

	var results []MatchEntry
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return results, nil
}

// MatchByID retrieves one match, or nil when it does not exist.
func (s *Store) MatchByID(id int64) (*MatchEntry, error) {
	m, err := scanMatch(s.db.QueryRow(`SELECT `+matchColumns+` FROM matches WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query match: %w", err)
	}
	return &m, nil
}

// RecentMatches returns the most recent matches, newest first.
func (s *Store) RecentMatches(limit int) ([]MatchEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryMatches(
		`SELECT `+matchColumns+` FROM matches ORDER BY ended_at DESC, id DESC LIMIT ?`,
		limit,
	)
}

// PlayerMatches returns the matches a player took part in, newest first.
func (s *Store) PlayerMatches(playerID string, limit int) ([]MatchEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryMatches(
		`SELECT `+matchColumns+` FROM matches
		 WHERE player1_id = ? OR player2_id = ?
		 ORDER BY ended_at DESC, id DESC LIMIT ?`,
		playerID, playerID, limit,
	)
}

// RoomMatches returns the matches played in one room in play order.
func (s *Store) RoomMatches(roomID string) ([]MatchEntry, error) {
	return s.queryMatches(
		`SELECT `+matchColumns+` FROM matches WHERE room_id = ? ORDER BY ended_at, id`,
		roomID,
	)
}

// SaveTournament implements multiplayer.TournamentSaver.
func (s *Store) SaveTournament(res multiplayer.TournamentResult) error {
	_, err := s.db.Exec(
		`INSERT INTO tournaments
		 (room_id, flavor, champion_id, champion_name, players, matches, cancelled, reason, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RoomID,
		res.Flavor,
		res.ChampionID,
		res.ChampionName,
		res.Players,
		res.Matches,
		res.Cancelled,
		res.Reason,
		formatTime(res.EndedAt),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save tournament: %w", err)
	}
	return nil
}

// RecentTournaments returns the most recent tournament outcomes, newest first.
func (s *Store) RecentTournaments(limit int) ([]TournamentEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, room_id, flavor, champion_id, champion_name, players, matches, cancelled, reason, ended_at
		 FROM tournaments
		 ORDER BY ended_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query tournaments: %w", err)
	}
	defer rows.Close()

	var results []TournamentEntry
	for rows.Next() {
		var t TournamentEntry
		var championID, championName, reason sql.NullString
		var endedAt string
		if err := rows.Scan(
			&t.ID,
			&t.RoomID,
			&t.Flavor,
			&championID,
			&championName,
			&t.Players,
			&t.Matches,
			&t.Cancelled,
			&reason,
			&endedAt,
		); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		t.ChampionID = championID.String
		t.ChampionName = championName.String
		t.Reason = reason.String
		t.EndedAt = parseTime(endedAt)
		results = append(results, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return results, nil
}

// PlayerStats aggregates a player's matches and tournament titles.
func (s *Store) PlayerStats(playerID string) (*PlayerStats, error) {
	stats := &PlayerStats{PlayerID: playerID}

	var lastPlayed sql.NullString
	err := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN winner_id = ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(forfeit), 0),
		        MAX(ended_at)
		 FROM matches WHERE player1_id = ? OR player2_id = ?`,
		playerID, playerID, playerID,
	).Scan(&stats.Matches, &stats.Wins, &stats.Forfeits, &lastPlayed)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get player stats: %w", err)
	}
	if lastPlayed.Valid {
		stats.LastPlayed = parseTime(lastPlayed.String)
	}

	err = s.db.QueryRow(
		`SELECT COUNT(*) FROM tournaments WHERE champion_id = ? AND cancelled = 0`,
		playerID,
	).Scan(&stats.Titles)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot count titles: %w", err)
	}

	return stats, nil
}

// Ensure Store implements the persistence interfaces.
var (
	_ multiplayer.MatchResultSaver = (*Store)(nil)
	_ multiplayer.TournamentSaver  = (*Store)(nil)
)
