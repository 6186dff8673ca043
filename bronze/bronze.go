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

// Package bronze standardizes the landing extracts into typed tables. Every
// table is append-only except the user and trade snapshots, which are replaced
// by each new batch.
package bronze

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/penny-vault/pvelt/data"
	"github.com/penny-vault/pvelt/store"
	"github.com/rs/zerolog/log"
)

type Layer struct {
	store       *store.Store
	landingPath string
	asOf        time.Time
}

func New(s *store.Store, landingPath string, asOf time.Time) *Layer {
	return &Layer{
		store:       s,
		landingPath: landingPath,
		asOf:        data.Day(asOf),
	}
}

func (l *Layer) Name() string {
	return data.LayerBronze
}

// Initialize creates the bronze tables that do not exist yet
func (l *Layer) Initialize(ctx context.Context) error {
	stmts := []string{
		"CREATE SCHEMA IF NOT EXISTS landing",
		"CREATE SCHEMA IF NOT EXISTS bronze",
		"CREATE TABLE IF NOT EXISTS bronze.tempo (id BIGINT PRIMARY KEY, data DATE NOT NULL)",
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS bronze.usuarios (%s)", store.ColumnDefs(userColumns)),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS bronze.negociacoes (id BIGINT, %s)", store.ColumnDefs(tradeColumns)),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS bronze.brapi_quote_list (id BIGINT PRIMARY KEY, %s)", store.ColumnDefs(quoteColumns)),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS bronze.fundamentus_resultado (id BIGINT PRIMARY KEY, %s)", store.ColumnDefs(fundamentalColumns)),
	}

	if err := l.store.ExecAll(ctx, stmts...); err != nil {
		return data.NewLayerError(data.LayerBronze, "schema", err)
	}

	return nil
}

// Transform loads the landing extracts for the processing date and returns
// the number of rows written to each table
func (l *Layer) Transform(ctx context.Context) (data.TableCounts, error) {
	counts := data.TableCounts{}

	steps := []struct {
		table string
		load  func(context.Context) (int64, error)
	}{
		{"tempo", l.extendCalendar},
		{"usuarios", l.loadUsers},
		{"negociacoes", l.loadTrades},
		{"brapi_quote_list", l.loadQuotes},
		{"fundamentus_resultado", l.loadFundamentals},
	}

	for _, step := range steps {
		n, err := step.load(ctx)
		if err != nil {
			return counts, data.NewLayerError(data.LayerBronze, step.table, err)
		}

		counts.Add(data.Qualified(data.LayerBronze, step.table), n)
		log.Info().Str("Table", data.Qualified(data.LayerBronze, step.table)).Int64("NumRows", n).Msg("bronze table updated")
	}

	return counts, nil
}

// extractedDate prefers the date stamped on the row and falls back to the
// processing date when the stamp is missing or malformed
func (l *Layer) extractedDate(stamp string) time.Time {
	if data.IsBlank(stamp) {
		return l.asOf
	}

	dt, err := data.ParseDate(stamp)
	if err != nil {
		log.Warn().Str("ExtractedDate", stamp).Time("ProcessingDate", l.asOf).Msg("malformed extraction date, using processing date")
		return l.asOf
	}

	return dt
}

// stage replaces the landing staging table and bulk loads rows into it
func (l *Layer) stage(ctx context.Context, table string, cols []store.Column, rows [][]driver.Value) error {
	ddl := fmt.Sprintf("CREATE OR REPLACE TABLE landing.%s (seq BIGINT, %s)", table, store.ColumnDefs(cols))
	if _, err := l.store.Exec(ctx, ddl); err != nil {
		return err
	}

	return l.store.Append(ctx, data.LayerLanding, table, rows)
}
