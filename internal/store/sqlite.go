package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/inamate/collage/internal/document"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id           TEXT PRIMARY KEY,
	email        TEXT NOT NULL UNIQUE,
	password     TEXT NOT NULL,
	display_name TEXT NOT NULL,
	pro          INTEGER NOT NULL DEFAULT 0,
	created_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS collages (
	id          TEXT PRIMARY KEY,
	owner_id    TEXT NOT NULL,
	template_id TEXT NOT NULL,
	document    BLOB NOT NULL,
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS collages_owner_updated ON collages (owner_id, updated_at DESC);
`

// SQLite keeps users and collages in a single local database file. Times are
// stored as unix nanoseconds.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serializes writers and keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLite{db: db, now: time.Now}, nil
}

func (s *SQLite) Close() { s.db.Close() }

func (s *SQLite) CreateUser(ctx context.Context, u User) (User, error) {
	u.CreatedAt = s.now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password, display_name, pro, created_at)
		VALUES (?, lower(?), ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.DisplayName, u.Pro, u.CreatedAt.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, fmt.Errorf("user %s: %w", u.Email, ErrConflict)
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func scanSQLiteUser(row *sql.Row) (User, error) {
	var (
		u       User
		created int64
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Pro, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt = time.Unix(0, created).UTC()
	return u, nil
}

func (s *SQLite) UserByEmail(ctx context.Context, email string) (User, error) {
	return scanSQLiteUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = lower(?)`, email))
}

func (s *SQLite) UserByID(ctx context.Context, id string) (User, error) {
	return scanSQLiteUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (s *SQLite) SetPro(ctx context.Context, id string, pro bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET pro = ? WHERE id = ?`, pro, id)
	if err != nil {
		return fmt.Errorf("set pro: %w", err)
	}
	return affected(res)
}

func (s *SQLite) SaveCollage(ctx context.Context, c document.Collage) (document.Collage, error) {
	doc, err := json.Marshal(c)
	if err != nil {
		return document.Collage{}, fmt.Errorf("marshal collage: %w", err)
	}
	now := s.now().UTC().UnixNano()
	var created, updated int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO collages (id, owner_id, template_id, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET template_id = excluded.template_id, document = excluded.document, updated_at = excluded.updated_at
		RETURNING created_at, updated_at`,
		c.ID, c.OwnerID, c.TemplateID, doc, now, now).Scan(&created, &updated)
	if err != nil {
		return document.Collage{}, fmt.Errorf("save collage: %w", err)
	}
	c.CreatedAt, c.UpdatedAt = time.Unix(0, created).UTC(), time.Unix(0, updated).UTC()
	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteCollage(row rowScanner) (document.Collage, error) {
	var (
		doc              []byte
		created, updated int64
	)
	if err := row.Scan(&doc, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return document.Collage{}, ErrNotFound
		}
		return document.Collage{}, fmt.Errorf("scan collage: %w", err)
	}
	var c document.Collage
	if err := json.Unmarshal(doc, &c); err != nil {
		return document.Collage{}, fmt.Errorf("unmarshal collage: %w", err)
	}
	c.CreatedAt, c.UpdatedAt = time.Unix(0, created).UTC(), time.Unix(0, updated).UTC()
	return c, nil
}

func (s *SQLite) Collage(ctx context.Context, id string) (document.Collage, error) {
	return scanSQLiteCollage(s.db.QueryRowContext(ctx,
		`SELECT document, created_at, updated_at FROM collages WHERE id = ?`, id))
}

func (s *SQLite) ListCollages(ctx context.Context, ownerID string) ([]document.Collage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document, created_at, updated_at FROM collages
		WHERE owner_id = ? ORDER BY updated_at DESC, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list collages: %w", err)
	}
	defer rows.Close()

	out := make([]document.Collage, 0)
	for rows.Next() {
		c, err := scanSQLiteCollage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list collages: %w", err)
	}
	return out, nil
}

func (s *SQLite) DeleteCollage(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM collages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete collage: %w", err)
	}
	return affected(res)
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
