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

package bronze

import (
	"context"
	"database/sql/driver"
	"errors"
	"io/fs"
	"strings"

	"github.com/penny-vault/pvelt/data"
	"github.com/penny-vault/pvelt/store"
	"github.com/rs/zerolog/log"
)

var quoteColumns = []store.Column{
	{Name: "ticker", Type: "VARCHAR NOT NULL"},
	{Name: "name", Type: "VARCHAR"},
	{Name: "close", Type: "DOUBLE"},
	{Name: "change", Type: "DOUBLE"},
	{Name: "volume", Type: "BIGINT"},
	{Name: "market_cap", Type: "DOUBLE"},
	{Name: "logo", Type: "VARCHAR"},
	{Name: "sector", Type: "VARCHAR"},
	{Name: "type", Type: "VARCHAR"},
	{Name: "extracted_date", Type: "DATE NOT NULL"},
}

// loadQuotes appends the quote-list extract of the processing date
func (l *Layer) loadQuotes(ctx context.Context) (int64, error) {
	fn := data.QuotesFile(l.landingPath, l.asOf)
	quotes, err := data.ReadParquet[data.RawQuote](fn)
	if errors.Is(err, fs.ErrNotExist) {
		log.Info().Str("FileName", fn).Msg("no quote extract for processing date")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	rows := make([][]driver.Value, 0, len(quotes))
	for idx, quote := range quotes {
		ticker := strings.TrimSpace(quote.Stock)
		if ticker == "" {
			log.Warn().Int("Row", idx).Msg("skipping quote without ticker")
			continue
		}

		rows = append(rows, []driver.Value{
			int64(idx),
			ticker,
			store.TextPtr(quote.Name),
			store.Float(quote.Close),
			store.Float(quote.Change),
			store.Int(quote.Volume),
			store.Float(quote.MarketCap),
			store.TextPtr(quote.Logo),
			store.TextPtr(quote.Sector),
			store.TextPtr(quote.Type),
			l.extractedDate(quote.ExtractedDate),
		})
	}

	if err := l.stage(ctx, "brapi_quote_list", quoteColumns, rows); err != nil {
		return 0, err
	}

	return l.appendSnapshot(ctx, "brapi_quote_list", quoteColumns)
}
