package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inamate/collage/internal/document"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id           TEXT PRIMARY KEY,
	email        TEXT NOT NULL UNIQUE,
	password     TEXT NOT NULL,
	display_name TEXT NOT NULL,
	pro          BOOLEAN NOT NULL DEFAULT FALSE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS collages (
	id          TEXT PRIMARY KEY,
	owner_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	template_id TEXT NOT NULL,
	document    JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS collages_owner_updated ON collages (owner_id, updated_at DESC);
`

// Postgres stores users in a table and collages as JSONB documents.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the tables if they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (p *Postgres) Close() { p.pool.Close() }

func (p *Postgres) CreateUser(ctx context.Context, u User) (User, error) {
	row := p.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, password, display_name, pro)
		VALUES ($1, lower($2), $3, $4, $5)
		RETURNING created_at`,
		u.ID, u.Email, u.PasswordHash, u.DisplayName, u.Pro)
	if err := row.Scan(&u.CreatedAt); err != nil {
		if isDuplicateKeyError(err) {
			return User{}, fmt.Errorf("user %s: %w", u.Email, ErrConflict)
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

const userColumns = `id, email, password, display_name, pro, created_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Pro, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func (p *Postgres) UserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(p.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = lower($1)`, email))
}

func (p *Postgres) UserByID(ctx context.Context, id string) (User, error) {
	return scanUser(p.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (p *Postgres) SetPro(ctx context.Context, id string, pro bool) error {
	tag, err := p.pool.Exec(ctx, `UPDATE users SET pro = $2 WHERE id = $1`, id, pro)
	if err != nil {
		return fmt.Errorf("set pro: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) SaveCollage(ctx context.Context, c document.Collage) (document.Collage, error) {
	doc, err := json.Marshal(c)
	if err != nil {
		return document.Collage{}, fmt.Errorf("marshal collage: %w", err)
	}
	var created, updated time.Time
	err = p.pool.QueryRow(ctx, `
		INSERT INTO collages (id, owner_id, template_id, document)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET template_id = EXCLUDED.template_id, document = EXCLUDED.document, updated_at = now()
		RETURNING created_at, updated_at`,
		c.ID, c.OwnerID, c.TemplateID, doc).Scan(&created, &updated)
	if err != nil {
		return document.Collage{}, fmt.Errorf("save collage: %w", err)
	}
	c.CreatedAt, c.UpdatedAt = created.UTC(), updated.UTC()
	return c, nil
}

func scanCollage(row pgx.Row) (document.Collage, error) {
	var (
		doc              []byte
		created, updated time.Time
	)
	if err := row.Scan(&doc, &created, &updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return document.Collage{}, ErrNotFound
		}
		return document.Collage{}, fmt.Errorf("scan collage: %w", err)
	}
	var c document.Collage
	if err := json.Unmarshal(doc, &c); err != nil {
		return document.Collage{}, fmt.Errorf("unmarshal collage: %w", err)
	}
	c.CreatedAt, c.UpdatedAt = created.UTC(), updated.UTC()
	return c, nil
}

func (p *Postgres) Collage(ctx context.Context, id string) (document.Collage, error) {
	return scanCollage(p.pool.QueryRow(ctx,
		`SELECT document, created_at, updated_at FROM collages WHERE id = $1`, id))
}

func (p *Postgres) ListCollages(ctx context.Context, ownerID string) ([]document.Collage, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT document, created_at, updated_at FROM collages
		WHERE owner_id = $1 ORDER BY updated_at DESC, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list collages: %w", err)
	}
	defer rows.Close()

	out := make([]document.Collage, 0)
	for rows.Next() {
		c, err := scanCollage(rows)
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

func (p *Postgres) DeleteCollage(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM collages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete collage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
