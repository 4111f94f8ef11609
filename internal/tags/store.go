package tags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a guild has no tag by the requested name
var ErrNotFound = errors.New("tag not found")

// ErrExists is returned when creating a tag whose name is already taken
// in the guild
var ErrExists = errors.New("tag already exists")

// Store keeps per-guild text tags: short named snippets members can
// recall in chat
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
		`CREATE TABLE IF NOT EXISTS tags (
			guild_id VARCHAR(20) NOT NULL,
			name TEXT NOT NULL,
			content TEXT NOT NULL,
			created_by VARCHAR(20) NOT NULL,
			UNIQUE(guild_id, name)
		)`,
	)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, guildID, name, content, createdBy string) error {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO tags (guild_id, name, content, created_by)
		 SELECT ?, ?, ?, ?
		 WHERE NOT EXISTS (SELECT 1 FROM tags WHERE guild_id = ? AND name = ?)`,
		guildID, name, content, createdBy, guildID, name,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrExists
	}
	return nil
}

func (s *Store) Get(ctx context.Context, guildID, name string) (string, error) {
	var content string
	err := s.db.QueryRowContext(ctx,
		`SELECT content FROM tags WHERE guild_id = ? AND name = ?`, guildID, name,
	).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return content, err
}

func (s *Store) Edit(ctx context.Context, guildID, name, content string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE tags SET content = ? WHERE guild_id = ? AND name = ?`,
		content, guildID, name,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, guildID, name string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM tags WHERE guild_id = ? AND name = ?`, guildID, name,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context, guildID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM tags WHERE guild_id = ? ORDER BY name`, guildID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Closest suggests the tag name nearest to a missed lookup, as long as it
// is within two edits
func (s *Store) Closest(ctx context.Context, guildID, name string) (string, error) {
	names, err := s.List(ctx, guildID)
	if err != nil {
		return "", err
	}

	best, bestDistance := "", 3
	for _, candidate := range names {
		if distance := editDistance(name, candidate); distance < bestDistance {
			best, bestDistance = candidate, distance
		}
	}
	if best == "" {
		return "", ErrNotFound
	}
	return best, nil
}

func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	previous := make([]int, len(rb)+1)
	current := make([]int, len(rb)+1)
	for j := range previous {
		previous[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		current[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			current[j] = min(previous[j]+1, current[j-1]+1, previous[j-1]+cost)
		}
		previous, current = current, previous
	}
	return previous[len(rb)]
}
