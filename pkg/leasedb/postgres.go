package leasedb

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xhad/brikmate/internal/errs"
	"github.com/xhad/brikmate/internal/models"
	"github.com/xhad/brikmate/internal/types"
)

// Connect opens a pgx pool and checks that the database answers.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %v", err)
	}
	return pool, nil
}

type PostgresStore struct {
	pool  *pgxpool.Pool
	table string
}

var _ types.LeaseStore = (*PostgresStore)(nil)

// NewPostgres creates the lease table on pool if needed. The store takes
// ownership of pool and closes it on Close.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool, table string) (*PostgresStore, error) {
	if table == "" {
		table = DefaultTableName
	}

	s := &PostgresStore{pool: pool, table: table}
	for _, stmt := range createTableSQL(table, postgresDialect) {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to create lease table: %v", err)
		}
	}
	return s, nil
}

func (s *PostgresStore) Create(ctx context.Context, lease *models.Lease) error {
	const op = "leasedb.Create"

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errs.E(errs.PersistenceFailed, op, fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, insertSQL(s.table, postgresDialect), values(lease, lease.CreatedAt)...); err != nil {
		return errs.E(errs.PersistenceFailed, op, fmt.Errorf("failed to insert lease: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return errs.E(errs.PersistenceFailed, op, fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Lease, error) {
	const op = "leasedb.Get"

	var lease models.Lease
	row := s.pool.QueryRow(ctx, selectSQL(s.table)+" WHERE id = $1", id)
	if err := row.Scan(scanTargets(&lease, &lease.CreatedAt)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.E(errs.NotFound, op, fmt.Errorf("lease %s: %w", id, errs.ErrNotFound))
		}
		return nil, errs.E(errs.PersistenceFailed, op, err)
	}
	return &lease, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.Lease, error) {
	const op = "leasedb.List"

	rows, err := s.pool.Query(ctx, selectSQL(s.table)+" ORDER BY created_at, id")
	if err != nil {
		return nil, errs.E(errs.PersistenceFailed, op, err)
	}
	defer rows.Close()

	leases := []models.Lease{}
	for rows.Next() {
		var lease models.Lease
		if err := rows.Scan(scanTargets(&lease, &lease.CreatedAt)...); err != nil {
			return nil, errs.E(errs.PersistenceFailed, op, fmt.Errorf("failed to scan row: %w", err))
		}
		leases = append(leases, lease)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.E(errs.PersistenceFailed, op, err)
	}
	return leases, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+s.table).Scan(&n); err != nil {
		return 0, errs.E(errs.PersistenceFailed, "leasedb.Count", err)
	}
	return n, nil
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
