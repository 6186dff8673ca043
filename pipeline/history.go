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

package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pvelt/data"
	"github.com/penny-vault/pvelt/store"
)

// RunRecord is a row of meta.pipeline_runs
type RunRecord struct {
	RunID       string         `db:"run_id"`
	AsOf        time.Time      `db:"as_of"`
	StartedAt   time.Time      `db:"started_at"`
	FinishedAt  time.Time      `db:"finished_at"`
	Status      string         `db:"status"`
	Error       sql.NullString `db:"error"`
	TableCounts string         `db:"table_counts"`
}

// Counts decodes the per-table row counts stored with the run
func (r *RunRecord) Counts() (data.TableCounts, error) {
	counts := data.TableCounts{}
	if r.TableCounts == "" {
		return counts, nil
	}
	err := json.Unmarshal([]byte(r.TableCounts), &counts)
	return counts, err
}

func ensureHistory(ctx context.Context, s *store.Store) error {
	return s.ExecAll(ctx,
		"CREATE SCHEMA IF NOT EXISTS meta",
		`CREATE TABLE IF NOT EXISTS meta.pipeline_runs (
	run_id VARCHAR PRIMARY KEY,
	as_of DATE NOT NULL,
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP NOT NULL,
	status VARCHAR NOT NULL,
	error VARCHAR,
	table_counts VARCHAR
)`)
}

func recordRun(ctx context.Context, s *store.Store, summary *RunSummary) error {
	counts, err := json.Marshal(summary.Tables)
	if err != nil {
		return err
	}

	var runErr any
	if summary.Error != "" {
		runErr = summary.Error
	}

	_, err = s.Exec(ctx, `INSERT INTO meta.pipeline_runs
	(run_id, as_of, started_at, finished_at, status, error, table_counts)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		summary.RunID.String(), summary.AsOf, summary.StartTime, summary.EndTime,
		summary.Status, runErr, string(counts))
	return err
}

// History returns the most recent runs, newest first. An empty store has no
// history.
func History(ctx context.Context, s *store.Store, limit int) ([]*RunRecord, error) {
	ok, err := s.TableExists(ctx, data.LayerMeta, "pipeline_runs")
	if err != nil || !ok {
		return nil, err
	}

	var runs []*RunRecord
	err = s.Select(ctx, &runs, fmt.Sprintf(`SELECT run_id, as_of, started_at, finished_at, status, error, table_counts
FROM meta.pipeline_runs
ORDER BY started_at DESC
LIMIT %d`, limit))
	return runs, err
}
