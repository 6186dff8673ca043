// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/duckdb/duckdb-go/v2"
	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/rs/zerolog/log"
)

var (
	ErrStoreUnavailable = errors.New("analytical store unavailable")
	ErrUnexpectedDriver = errors.New("unexpected driver connection type")
)

// Store is the single-file analytical database every layer reads and writes.
// All statements go through one connection so that transactions, temporary
// objects and appenders see the same session.
type Store struct {
	path string
	db   *sql.DB
	conn *sql.Conn
}

// Open creates or opens the database file at path. An empty path opens an
// in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
	}

	connector, err := duckdb.NewConnector(path, nil)
	if err != nil {
		log.Error().Err(err).Str("DatabasePath", path).Msg("could not open analytical store")
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		log.Error().Err(err).Str("DatabasePath", path).Msg("could not connect to analytical store")
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		db.Close()
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	log.Debug().Str("DatabasePath", path).Msg("opened analytical store")
	return &Store{path: path, db: db, conn: conn}, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	return errors.Join(s.conn.Close(), s.db.Close())
}

// Exec runs a single statement and returns the number of affected rows
func (s *Store) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error().Err(err).Str("SQL", query).Msg("statement failed")
		return 0, err
	}

	return rowsAffected(res, query)
}

// ExecAll runs each statement in order, stopping at the first failure
func (s *Store) ExecAll(ctx context.Context, stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := s.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// WithTx runs fn inside a transaction, committing when it returns nil and
// rolling back otherwise
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("could not rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// TxExec runs a statement inside tx and returns the affected rows
func TxExec(ctx context.Context, tx *sql.Tx, query string, args ...any) (int64, error) {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error().Err(err).Str("SQL", query).Msg("statement failed")
		return 0, err
	}

	return rowsAffected(res, query)
}

func rowsAffected(res sql.Result, query string) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		log.Error().Err(err).Str("SQL", query).Msg("could not read affected rows")
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (s *Store) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.conn.QueryRowContext(ctx, query, args...)
}

func (s *Store) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.conn.QueryContext(ctx, query, args...)
}

// Select scans every row of query into dst, a pointer to a slice
func (s *Store) Select(ctx context.Context, dst any, query string, args ...any) error {
	if err := sqlscan.Select(ctx, s.conn, dst, query, args...); err != nil {
		log.Error().Err(err).Str("SQL", query).Msg("select failed")
		return err
	}
	return nil
}

// EngineVersion returns the version of the DuckDB library behind the store
func (s *Store) EngineVersion(ctx context.Context) (string, error) {
	var version string
	if err := s.QueryRow(ctx, "SELECT version()").Scan(&version); err != nil {
		return "", err
	}
	return version, nil
}

// TableExists reports whether schema.table exists
func (s *Store) TableExists(ctx context.Context, schema, table string) (bool, error) {
	var n int64
	err := s.QueryRow(ctx, `SELECT count(*) FROM information_schema.tables
		WHERE table_schema = ? AND table_name = ?`, schema, table).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Count returns the number of rows in schema.table
func (s *Store) Count(ctx context.Context, schema, table string) (int64, error) {
	var n int64
	if err := s.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM %s.%s", schema, table)).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Append bulk loads rows into schema.table. Values must match the column
// types exactly (int64 for BIGINT, float64 for DOUBLE, time.Time for DATE);
// a nil value stores NULL. Append must not be called inside WithTx.
func (s *Store) Append(ctx context.Context, schema, table string, rows [][]driver.Value) error {
	if len(rows) == 0 {
		return nil
	}

	return s.conn.Raw(func(driverConn any) error {
		conn, ok := driverConn.(driver.Conn)
		if !ok {
			return ErrUnexpectedDriver
		}

		appender, err := duckdb.NewAppenderFromConn(conn, schema, table)
		if err != nil {
			return fmt.Errorf("create appender for %s.%s: %w", schema, table, err)
		}

		for _, row := range rows {
			if err := appender.AppendRow(row...); err != nil {
				appender.Close()
				return fmt.Errorf("append to %s.%s: %w", schema, table, err)
			}
		}

		return appender.Close()
	})
}

// ExportParquet writes the full contents of schema.table to fn
func (s *Store) ExportParquet(ctx context.Context, schema, table, fn string) error {
	if err := os.MkdirAll(filepath.Dir(fn), 0o755); err != nil {
		return err
	}

	query := fmt.Sprintf("COPY (SELECT * FROM %s.%s) TO %s (FORMAT parquet, COMPRESSION zstd)",
		schema, table, Quote(fn))
	_, err := s.Exec(ctx, query)
	return err
}

// Quote returns s as a SQL string literal
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// DateLiteral renders a day as a SQL DATE literal
func DateLiteral(t time.Time) string {
	return "DATE '" + t.Format("2006-01-02") + "'"
}
