package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/cartstate/internal/port"
)

const (
	getSnapshotSQL = `SELECT blob FROM cart_snapshots WHERE key = $1`

	getRevisionSQL = `SELECT revision, updated_at FROM cart_snapshots WHERE key = $1`

	upsertSnapshotSQL = `
INSERT INTO cart_snapshots (key, blob)
VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE
    SET blob       = EXCLUDED.blob,
        revision   = cart_snapshots.revision + 1,
        updated_at = now()
RETURNING revision`
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Revision describes the last write of a snapshot key.
type Revision struct {
	Number    int64
	UpdatedAt time.Time
}

type CartRepository struct {
	q    querier
	pool *pgxpool.Pool
}

var _ port.SnapshotStore = (*CartRepository)(nil)

func NewCart(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{
		q:    pool,
		pool: pool,
	}
}

func NewCartWithTx(tx pgx.Tx) *CartRepository {
	return &CartRepository{
		q:    tx,
		pool: nil, // use provided transaction instead
	}
}

func (r *CartRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("key is empty")
	}

	var blob []byte

	err := r.q.QueryRow(ctx, getSnapshotSQL, key).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("q.QueryRow: %w", err)
	}

	return blob, nil
}

func (r *CartRepository) Set(ctx context.Context, key string, blob []byte) error {
	_, err := r.SetRevision(ctx, key, blob)
	return err
}

// SetRevision upserts the snapshot and returns its new revision number.
func (r *CartRepository) SetRevision(ctx context.Context, key string, blob []byte) (int64, error) {
	if key == "" {
		return 0, fmt.Errorf("key is empty")
	}

	return withTx(ctx, r.pool, r.q, func(q querier) (int64, error) {
		var revision int64

		if err := q.QueryRow(ctx, upsertSnapshotSQL, key, string(blob)).Scan(&revision); err != nil {
			return 0, fmt.Errorf("q.QueryRow: %w", err)
		}

		return revision, nil
	})
}

func (r *CartRepository) Revision(ctx context.Context, key string) (Revision, error) {
	if key == "" {
		return Revision{}, fmt.Errorf("key is empty")
	}

	var rev Revision

	err := r.q.QueryRow(ctx, getRevisionSQL, key).Scan(&rev.Number, &rev.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Revision{}, port.ErrSnapshotNotFound
	}
	if err != nil {
		return Revision{}, fmt.Errorf("q.QueryRow: %w", err)
	}

	return rev, nil
}

func (r *CartRepository) Delete(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, fmt.Errorf("key is empty")
	}

	tag, err := r.q.Exec(ctx, `DELETE FROM cart_snapshots WHERE key = $1`, key)
	if err != nil {
		return false, fmt.Errorf("q.Exec: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
