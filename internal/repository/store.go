package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"
)

// Dialect selects placeholder style and row-locking support.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type txKey struct{}

// Store owns the connection pool and the unit of work shared by every repository.
// Repositories resolve their querier from the context, so a call made inside
// Atomic runs on the open transaction and a call made outside runs on the pool.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
	sb      sq.StatementBuilderType
}

// NewStore creates a Store for the given driver name ("sqlite" or "postgres").
func NewStore(db *sql.DB, driver string, logger *zap.Logger) *Store {
	dialect := Dialect(driver)
	placeholder := sq.PlaceholderFormat(sq.Question)
	if dialect == DialectPostgres {
		placeholder = sq.Dollar
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		db:      db,
		dialect: dialect,
		logger:  logger,
		sb:      sq.StatementBuilder.PlaceholderFormat(placeholder),
	}
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB { return s.db }

// Dialect returns the SQL dialect of the store.
func (s *Store) Dialect() Dialect { return s.dialect }

// Atomic runs fn inside a database transaction carried by the context passed
// to fn. It commits when fn returns nil and rolls back otherwise. Calls nested
// inside an open unit of work join it instead of starting a new one.
//
// The transaction is not bound to ctx cancellation: once started it always
// finishes by committing or rolling back as a whole.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if InTx(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(context.WithoutCancel(ctx), nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	s.logger.Debug("[DATABASE.TRANSACTION.BEGIN]")

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			s.logger.Error("[DATABASE.TRANSACTION.PANIC]", zap.Any("panic", p))
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.Error("[DATABASE.TRANSACTION.ROLLBACK]", zap.Error(err), zap.NamedError("rollbackError", rbErr))
				return
			}
			s.logger.Debug("[DATABASE.TRANSACTION.ROLLBACK]", zap.Error(err))
			return
		}
		if err = tx.Commit(); err != nil {
			s.logger.Error("[DATABASE.TRANSACTION.COMMIT]", zap.Error(err))
			err = fmt.Errorf("failed to commit transaction: %w", err)
			return
		}
		s.logger.Debug("[DATABASE.TRANSACTION.COMMIT]")
	}()

	err = fn(context.WithValue(ctx, txKey{}, tx))
	return err
}

// InTx reports whether ctx carries an open unit of work.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sql.Tx)
	return ok
}

func (s *Store) querier(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

// lockRows adds FOR UPDATE (OF table, when given) to a select run inside a
// unit of work on postgres. SQLite transactions already hold the write lock.
func (s *Store) lockRows(ctx context.Context, b sq.SelectBuilder, of string) sq.SelectBuilder {
	if s.dialect != DialectPostgres || !InTx(ctx) {
		return b
	}
	if of != "" {
		return b.Suffix("FOR UPDATE OF " + of)
	}
	return b.Suffix("FOR UPDATE")
}

func (s *Store) exec(ctx context.Context, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return s.querier(ctx).ExecContext(ctx, query, args...)
}

func (s *Store) query(ctx context.Context, b sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return s.querier(ctx).QueryContext(ctx, query, args...)
}

func (s *Store) queryRow(ctx context.Context, b sq.Sqlizer) (*sql.Row, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return s.querier(ctx).QueryRowContext(ctx, query, args...), nil
}

// execOne runs b and fails with notFound when no row was affected.
func (s *Store) execOne(ctx context.Context, b sq.Sqlizer, notFound error) error {
	res, err := s.exec(ctx, b)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
