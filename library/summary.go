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

package library

import (
	"context"
	"strings"
	"time"

	"github.com/penny-vault/pvelt/data"
	"github.com/penny-vault/pvelt/pipeline"
	"github.com/penny-vault/pvelt/store"
	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const recentRuns = 5

// Library describes the contents of an analytical store
type Library struct {
	store *store.Store
}

func New(s *store.Store) *Library {
	return &Library{store: s}
}

// LayerCounts returns the row count of every existing table of layer
func (myLibrary *Library) LayerCounts(ctx context.Context, layer string) (data.TableCounts, error) {
	counts := data.TableCounts{}
	for _, table := range data.Tables[layer] {
		ok, err := myLibrary.store.TableExists(ctx, layer, table)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		n, err := myLibrary.store.Count(ctx, layer, table)
		if err != nil {
			return nil, err
		}
		counts[table] = n
	}

	return counts, nil
}

// Summary returns a description of the store in markdown
func (myLibrary *Library) Summary(ctx context.Context) (string, error) {
	p := message.NewPrinter(language.English)
	builder := &strings.Builder{}

	p.Fprintf(builder, "# pvelt\n## Details\n\n")
	p.Fprintf(builder, "Database: %s\n\n", myLibrary.store.Path())

	runs, err := pipeline.History(ctx, myLibrary.store, recentRuns)
	if err != nil {
		return "", err
	}

	if len(runs) == 0 {
		p.Fprintf(builder, "Last Run: Never\n\n")
	} else {
		last := runs[0]
		p.Fprintf(builder, "Last Run: %s (%s, %s)\n\n", timeago.English.Format(last.FinishedAt),
			last.AsOf.Format(data.DateLayout), last.Status)
	}

	var total int64
	for _, layer := range []string{data.LayerBronze, data.LayerSilver, data.LayerGold} {
		counts, err := myLibrary.LayerCounts(ctx, layer)
		if err != nil {
			return "", err
		}

		p.Fprintf(builder, "## %s\n\n", layer)
		if len(counts) == 0 {
			p.Fprintf(builder, "  * not built\n")
		}

		for _, table := range data.Tables[layer] {
			n, ok := counts[table]
			if !ok {
				continue
			}
			p.Fprintf(builder, "  * %s: %d rows\n", table, n)
			total += n
		}
		p.Fprintf(builder, "\n")
	}

	p.Fprintf(builder, "Total Records: %d\n\n", total)

	if len(runs) > 0 {
		p.Fprintf(builder, "## Recent runs\n\n")
	}

	for _, run := range runs {
		counts, err := run.Counts()
		if err != nil {
			return "", err
		}

		p.Fprintf(builder, "  * %s %s in %s, %d rows written [%s]\n", run.AsOf.Format(data.DateLayout), run.Status,
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond), counts.Total(), run.RunID[:8])
		if run.Error.Valid {
			p.Fprintf(builder, "    * %s\n", run.Error.String)
		}
	}

	return builder.String(), nil
}
