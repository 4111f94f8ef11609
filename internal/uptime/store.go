package uptime

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store persists uptime records in SQLite. The (player, date) uniqueness
// is enforced by the schema, not by calling code: the scheduler and
// on-demand backfill can race to write the same day for the same player,
// and the last write has to win without leaving duplicate rows.
type Store struct {
	db *sql.DB
}

// NewStore opens (and migrates) the uptime database at the given path
func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("could not create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	// Serialize access through one connection: concurrent upserts for the
	// same (player, date) then resolve to last write wins without busy errors
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}
	return store, nil
}

// NewStoreWithDB wraps an already opened database handle. The tags and
// users stores share the same file, so the handle is opened once in main.
func NewStoreWithDB(db *sql.DB) (*Store, error) {
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(
		`CREATE TABLE IF NOT EXISTS uptime (
			uuid VARCHAR(32) NOT NULL,
			date TEXT NOT NULL,
			gexp INTEGER NOT NULL,
			guild_id VARCHAR(32) NOT NULL,
			PRIMARY KEY (uuid, date)
		)`,
	)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// GetRange returns the rows that exist for the player between the two
// dates (inclusive), most recent first. Missing days are simply absent;
// synthesizing them is the engine's job, not the store's.
func (s *Store) GetRange(ctx context.Context, playerID string, from, to Date) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT uuid, date, gexp, guild_id FROM uptime
		 WHERE uuid = ? AND date >= ? AND date <= ?
		 ORDER BY date DESC`,
		playerID, string(from), string(to),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var record Record
		if err := rows.Scan(&record.PlayerID, &record.Date, &record.Gexp, &record.GuildID); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// UpsertSnapshot writes every (player, date, gexp) triple of the snapshot
// in a single transaction. Existing rows only get their gexp and guild id
// replaced; the key fields are immutable.
func (s *Store) UpsertSnapshot(ctx context.Context, snapshot Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO uptime (uuid, date, gexp, guild_id) VALUES (?, ?, ?, ?)
		 ON CONFLICT(uuid, date) DO UPDATE SET gexp = excluded.gexp, guild_id = excluded.guild_id`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for playerID, history := range snapshot.Players {
		for date, gexp := range history {
			if !date.Valid() {
				// Malformed upstream date keys do not abort the snapshot
				continue
			}
			if _, err := stmt.ExecContext(ctx, playerID, string(date), gexp, snapshot.GuildID); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// DistinctPlayers returns every player id present in the store. Presence
// here is what makes a player tracked; there is no separate watchlist.
func (s *Store) DistinctPlayers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT uuid FROM uptime`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []string
	for rows.Next() {
		var playerID string
		if err := rows.Scan(&playerID); err != nil {
			return nil, err
		}
		players = append(players, playerID)
	}
	return players, rows.Err()
}
