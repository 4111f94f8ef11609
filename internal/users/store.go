package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a Discord user has no row, or no linked
// minecraft account
var ErrNotFound = errors.New("user not found")

// Store keeps per-Discord-user data: the linked minecraft account and the
// preferred embed accent color
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (*Store, error) {
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(
		`CREATE TABLE IF NOT EXISTS users (
			discord_id VARCHAR(20) PRIMARY KEY,
			username TEXT NOT NULL,
			mc_username TEXT,
			mc_uuid VARCHAR(32),
			color TEXT
		)`,
	)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// Link stores (or replaces) the minecraft account of a Discord user
func (s *Store) Link(ctx context.Context, discordID, username, mcUsername, mcUUID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (discord_id, username, mc_username, mc_uuid) VALUES (?, ?, ?, ?)
		 ON CONFLICT(discord_id) DO UPDATE SET username = excluded.username,
			mc_username = excluded.mc_username, mc_uuid = excluded.mc_uuid`,
		discordID, username, mcUsername, mcUUID,
	)
	return err
}

// LinkedAccount returns the minecraft account linked to a Discord user.
// Feeds the identity resolver.
func (s *Store) LinkedAccount(ctx context.Context, discordID string) (string, string, error) {
	var mcUsername, mcUUID sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT mc_username, mc_uuid FROM users WHERE discord_id = ?`, discordID,
	).Scan(&mcUsername, &mcUUID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", ErrNotFound
	}
	if err != nil {
		return "", "", err
	}
	if !mcUsername.Valid || !mcUUID.Valid || mcUUID.String == "" {
		return "", "", ErrNotFound
	}
	return mcUsername.String, mcUUID.String, nil
}

// SetColor stores the preferred embed accent color (0xRRGGBB form)
func (s *Store) SetColor(ctx context.Context, discordID, username, color string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (discord_id, username, color) VALUES (?, ?, ?)
		 ON CONFLICT(discord_id) DO UPDATE SET username = excluded.username, color = excluded.color`,
		discordID, username, color,
	)
	return err
}

// Color returns the stored accent color, or ErrNotFound when the user
// never set one
func (s *Store) Color(ctx context.Context, discordID string) (string, error) {
	var color sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT color FROM users WHERE discord_id = ?`, discordID,
	).Scan(&color)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if !color.Valid || color.String == "" {
		return "", ErrNotFound
	}
	return color.String, nil
}
