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

package warehouse

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/penny-vault/pvelt/data"
	"github.com/penny-vault/pvelt/store"
	"github.com/rs/zerolog/log"
)

var ErrCountMismatch = errors.New("published row count does not match store")

// Publish replaces every warehouse gold table with the contents of the store
func Publish(ctx context.Context, s *store.Store, databaseURL string) (data.TableCounts, error) {
	if err := Migrate(databaseURL); err != nil {
		log.Error().Err(err).Msg("warehouse migration failed")
		return nil, err
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		log.Error().Err(err).Msg("could not create warehouse connection pool")
		return nil, err
	}
	defer pool.Close()

	counts := data.TableCounts{}
	for _, table := range data.Tables[data.LayerGold] {
		n, err := publishTable(ctx, s, pool, table)
		if err != nil {
			return counts, data.NewLayerError(data.LayerGold, table, err)
		}

		counts.Add(data.Qualified(data.LayerGold, table), n)
		log.Info().Str("Table", data.Qualified(data.LayerGold, table)).Int64("NumRows", n).Msg("published to warehouse")
	}

	return counts, nil
}

// readTable loads every row of gold.<table> from the store
func readTable(ctx context.Context, s *store.Store, table string) ([]string, [][]any, error) {
	rows, err := s.Query(ctx, fmt.Sprintf("SELECT * FROM gold.%s ORDER BY id", table))
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var values [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		values = append(values, vals)
	}

	return cols, values, rows.Err()
}

func publishTable(ctx context.Context, s *store.Store, pool *pgxpool.Pool, table string) (int64, error) {
	cols, values, err := readTable(ctx, s, table)
	if err != nil {
		return 0, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, err
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			log.Error().Err(err).Str("Table", table).Msg("could not rollback warehouse transaction")
		}
	}()

	if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE gold.%s", table)); err != nil {
		return 0, err
	}

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{data.LayerGold, table}, cols, pgx.CopyFromRows(values))
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	var published int64
	if err := pgxscan.Get(ctx, pool, &published, fmt.Sprintf("SELECT count(*) FROM gold.%s", table)); err != nil {
		return 0, err
	}

	if published != int64(len(values)) {
		return published, fmt.Errorf("%w: gold.%s has %d rows, expected %d", ErrCountMismatch, table, published, len(values))
	}

	return copied, nil
}
