// Package sqlstore is the PostgreSQL persistence backend, built on the Bun
// ORM. One Store serves every entity DAO plus the template ACL and the
// process-number sequence, so a single database owns all workflow state.
package sqlstore

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a bun.DB. The caller owns the *bun.DB lifecycle; Store never
// closes it.
type Store struct {
	db     *bun.DB
	logger *zap.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates a Store over the given database handle.
func New(db *bun.DB, options ...Option) *Store {
	ret := &Store{db: db, logger: zap.NewNop()}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// DB returns the underlying *bun.DB for advanced usage.
func (s *Store) DB() *bun.DB {
	return s.db
}

type txKey struct{}

// conn returns the transaction carried by ctx when the call runs inside
// Atomically, and the root database handle otherwise.
func (s *Store) conn(ctx context.Context) bun.IDB {
	if tx, ok := ctx.Value(txKey{}).(bun.Tx); ok {
		return tx
	}
	return s.db
}

// Atomically runs fn inside one database transaction. Every DAO call made
// with the inner context writes through that transaction, so a failure
// halfway through a multi-row change rolls the whole change back. Nested
// calls join the enclosing transaction.
func (s *Store) Atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(bun.Tx); ok {
		return fn(ctx)
	}
	return s.db.RunInTx(ctx, nil, func(txCtx context.Context, tx bun.Tx) error {
		return fn(context.WithValue(txCtx, txKey{}, tx))
	})
}

// Templates returns the template DAO.
func (s *Store) Templates() *TemplateDAO { return &TemplateDAO{store: s} }

// Processes returns the process DAO.
func (s *Store) Processes() *ProcessDAO { return &ProcessDAO{store: s} }

// Steps returns the step-execution DAO.
func (s *Store) Steps() *StepDAO { return &StepDAO{store: s} }

// ACL returns the template access-control list backed by this store.
func (s *Store) ACL() *ACL { return &ACL{store: s} }

// Sequence returns the process-number sequence backed by this store.
func (s *Store) Sequence() *Sequence { return &Sequence{store: s} }

// Migrate runs all embedded SQL migration files in order.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS procwise_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("sqlstore: create migrations table: %w", err)
	}

	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("sqlstore: read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		var applied bool
		err = s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM procwise_migrations WHERE filename = ?)`,
			entry.Name(),
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("sqlstore: check migration %s: %w", entry.Name(), err)
		}
		if applied {
			continue
		}
		data, readErr := fs.ReadFile(migrationsFS, "migrations/"+entry.Name())
		if readErr != nil {
			return fmt.Errorf("sqlstore: read migration %s: %w", entry.Name(), readErr)
		}
		if _, execErr := s.db.ExecContext(ctx, string(data)); execErr != nil {
			return fmt.Errorf("sqlstore: execute migration %s: %w", entry.Name(), execErr)
		}
		if _, insErr := s.db.ExecContext(ctx,
			`INSERT INTO procwise_migrations (filename) VALUES (?)`, entry.Name()); insErr != nil {
			return fmt.Errorf("sqlstore: record migration %s: %w", entry.Name(), insErr)
		}
		s.logger.Info("applied migration", zap.String("filename", entry.Name()))
	}
	return nil
}
