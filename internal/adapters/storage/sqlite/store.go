// Package sqlite persists the catalog and message history in a SQLite
// database via the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/PabloGalante/persona-chat/internal/domain"
)

// Store implements domain.CharacterStore and domain.MessageStore.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at dsn and runs the schema
// migration. A dsn of ":memory:" is handy for tests.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("sqlite dsn is required")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening sqlite database")
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS character (
			id            TEXT NOT NULL PRIMARY KEY,
			display_name  TEXT NOT NULL,
			description   TEXT NOT NULL,
			avatar_ref    TEXT NOT NULL,
			system_prompt TEXT NOT NULL,
			greeting      TEXT NOT NULL,
			position      INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS message (
			seq          INTEGER PRIMARY KEY AUTOINCREMENT,
			id           TEXT NOT NULL UNIQUE,
			character_id TEXT NOT NULL REFERENCES character (id) ON DELETE CASCADE,
			role         TEXT NOT NULL,
			content      TEXT NOT NULL,
			created_ts   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_message_character ON message (character_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "migrating sqlite schema")
		}
	}
	return nil
}

// ─────────────────────────────────────────
// CharacterStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateCharacter(ctx context.Context, character *domain.Character) error {
	stmt := `INSERT INTO character (id, display_name, description, avatar_ref, system_prompt, greeting, position)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM character))`
	_, err := s.db.ExecContext(ctx, stmt,
		string(character.ID),
		character.DisplayName,
		character.Description,
		character.AvatarRef,
		character.SystemPrompt,
		character.Greeting,
	)
	return errors.Wrap(err, "sqlite CreateCharacter")
}

func (s *Store) GetCharacter(ctx context.Context, id domain.CharacterID) (*domain.Character, error) {
	stmt := `SELECT id, display_name, description, avatar_ref, system_prompt, greeting
		FROM character WHERE id = ?`
	ch := &domain.Character{}
	err := s.db.QueryRowContext(ctx, stmt, string(id)).Scan(
		&ch.ID,
		&ch.DisplayName,
		&ch.Description,
		&ch.AvatarRef,
		&ch.SystemPrompt,
		&ch.Greeting,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrCharacterNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "sqlite GetCharacter")
	}
	return ch, nil
}

func (s *Store) ListCharacters(ctx context.Context) ([]*domain.Character, error) {
	stmt := `SELECT id, display_name, description, avatar_ref, system_prompt, greeting
		FROM character ORDER BY position ASC`
	rows, err := s.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite ListCharacters")
	}
	defer rows.Close()

	var list []*domain.Character
	for rows.Next() {
		ch := &domain.Character{}
		if err := rows.Scan(
			&ch.ID,
			&ch.DisplayName,
			&ch.Description,
			&ch.AvatarRef,
			&ch.SystemPrompt,
			&ch.Greeting,
		); err != nil {
			return nil, errors.Wrap(err, "sqlite ListCharacters scan")
		}
		list = append(list, ch)
	}
	return list, errors.Wrap(rows.Err(), "sqlite ListCharacters rows")
}

// ─────────────────────────────────────────
// MessageStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendMessage(ctx context.Context, msg *domain.Message) error {
	stmt := `INSERT INTO message (id, character_id, role, content, created_ts)
		VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, stmt,
		string(msg.ID),
		string(msg.CharacterID),
		string(msg.Role),
		msg.Content,
		msg.CreatedAt.Unix(),
	)
	return errors.Wrap(err, "sqlite AppendMessage")
}

func (s *Store) ListMessages(ctx context.Context, id domain.CharacterID) ([]*domain.Message, error) {
	stmt := `SELECT id, character_id, role, content, created_ts
		FROM message WHERE character_id = ? ORDER BY seq ASC`
	rows, err := s.db.QueryContext(ctx, stmt, string(id))
	if err != nil {
		return nil, errors.Wrap(err, "sqlite ListMessages")
	}
	defer rows.Close()

	var list []*domain.Message
	for rows.Next() {
		m := &domain.Message{}
		var role string
		var createdTs int64
		if err := rows.Scan(&m.ID, &m.CharacterID, &role, &m.Content, &createdTs); err != nil {
			return nil, errors.Wrap(err, "sqlite ListMessages scan")
		}
		m.Role = domain.ParseRole(role)
		m.CreatedAt = time.Unix(createdTs, 0)
		list = append(list, m)
	}
	return list, errors.Wrap(rows.Err(), "sqlite ListMessages rows")
}
