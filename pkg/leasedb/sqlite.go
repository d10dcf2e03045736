package leasedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xhad/brikmate/internal/errs"
	"github.com/xhad/brikmate/internal/models"
	"github.com/xhad/brikmate/internal/types"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps leases in a local SQLite file. It needs no server and
// is the default for single-user deployments.
type SQLiteStore struct {
	db    *sql.DB
	table string
}

var _ types.LeaseStore = (*SQLiteStore)(nil)

func NewSQLite(ctx context.Context, path, table string) (*SQLiteStore, error) {
	if table == "" {
		table = DefaultTableName
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	for _, stmt := range createTableSQL(table, sqliteDialect) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create lease table: %w", err)
		}
	}

	return &SQLiteStore{db: db, table: table}, nil
}

func (s *SQLiteStore) transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx failed: %w, rollback failed: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Create(ctx context.Context, lease *models.Lease) error {
	err := s.transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, insertSQL(s.table, sqliteDialect), values(lease, formatTime(lease.CreatedAt))...)
		if err != nil {
			return fmt.Errorf("failed to insert lease: %w", err)
		}
		return nil
	})
	if err != nil {
		return errs.E(errs.PersistenceFailed, "leasedb.Create", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLease(row scanner) (*models.Lease, error) {
	var (
		lease     models.Lease
		createdAt string
	)
	if err := row.Scan(scanTargets(&lease, &createdAt)...); err != nil {
		return nil, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}
	lease.CreatedAt = t
	return &lease, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.Lease, error) {
	const op = "leasedb.Get"

	lease, err := scanLease(s.db.QueryRowContext(ctx, selectSQL(s.table)+" WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.E(errs.NotFound, op, fmt.Errorf("lease %s: %w", id, errs.ErrNotFound))
		}
		return nil, errs.E(errs.PersistenceFailed, op, err)
	}
	return lease, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]models.Lease, error) {
	const op = "leasedb.List"

	rows, err := s.db.QueryContext(ctx, selectSQL(s.table)+" ORDER BY created_at, id")
	if err != nil {
		return nil, errs.E(errs.PersistenceFailed, op, err)
	}
	defer rows.Close()

	leases := []models.Lease{}
	for rows.Next() {
		lease, err := scanLease(rows)
		if err != nil {
			return nil, errs.E(errs.PersistenceFailed, op, fmt.Errorf("failed to scan row: %w", err))
		}
		leases = append(leases, *lease)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.E(errs.PersistenceFailed, op, err)
	}
	return leases, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+s.table).Scan(&n); err != nil {
		return 0, errs.E(errs.PersistenceFailed, "leasedb.Count", err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() {
	s.db.Close()
}
