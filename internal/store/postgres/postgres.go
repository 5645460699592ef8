// Package postgres implements the store interfaces on PostgreSQL through a pgx pool.
// The schema lives in pkg/database/migrations.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-academy/backend/config"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
)

const uniqueViolation = "23505"

// New returns a Store whose repositories all use pool.
func New(pool *pgxpool.Pool) *store.Store {
	return &store.Store{
		Driver:        config.StorePostgres,
		Videos:        &Videos{pool: pool},
		Seminars:      &Seminars{pool: pool},
		Registrations: &Registrations{pool: pool},
		WatchSessions: &WatchSessions{pool: pool},
		Activities:    &Activities{pool: pool},
		UploadTasks:   &UploadTasks{pool: pool},
		Courses:       &Courses{pool: pool},
		DiscountRules: &DiscountRules{pool: pool},
		Departments:   &Departments{pool: pool},
		Ratings:       &Ratings{pool: pool},
		Refunds:       &Refunds{pool: pool},
	}
}

type scanner interface {
	Scan(dest ...any) error
}

// translate maps driver errors onto the store sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return store.ErrConflict
	}
	return err
}

func affected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// eqFold adds a case-insensitive equality on col when v is non-empty.
func eqFold(b *query.SQL, col, v string) {
	if v != "" {
		b.Cond("LOWER("+col+") = LOWER(?)", v)
	}
}

func boolEq(b *query.SQL, col string, v *bool) {
	if v != nil {
		b.Eq(col, *v)
	}
}

// list runs a COUNT over the filtered table, then fetches the requested page.
func list[T any](ctx context.Context, pool *pgxpool.Pool, table, cols string, b *query.SQL,
	order string, p query.ListParams, scan func(scanner) (T, error)) ([]T, int, error) {
	where := b.Where()
	var total int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table+where, b.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", table, err)
	}
	page := b.Page(p)
	rows, err := pool.Query(ctx, "SELECT "+cols+" FROM "+table+where+order+page, b.Args()...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}
