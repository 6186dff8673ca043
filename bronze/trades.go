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
	"database/sql"
	"database/sql/driver"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/penny-vault/pvelt/data"
	"github.com/penny-vault/pvelt/store"
	"github.com/rs/zerolog/log"
)

var tradeColumns = []store.Column{
	{Name: "usuario_id", Type: "BIGINT"},
	{Name: "tipo_ativo", Type: "VARCHAR"},
	{Name: "ticker", Type: "VARCHAR"},
	{Name: "data_movimentacao", Type: "DATE"},
	{Name: "quantidade", Type: "BIGINT"},
	{Name: "tipo_acao", Type: "VARCHAR"},
	{Name: "tipo_negociacao", Type: "VARCHAR"},
	{Name: "valor", Type: "DOUBLE"},
	{Name: "extracted_date", Type: "DATE"},
}

// loadTrades replaces the trade snapshot with every per-user sheet in the
// landing zone. Trades are numbered in file order starting at 1.
func (l *Layer) loadTrades(ctx context.Context) (int64, error) {
	files, err := filepath.Glob(data.TradesGlob(l.landingPath))
	if err != nil {
		return 0, err
	}

	if len(files) == 0 {
		log.Warn().Str("Glob", data.TradesGlob(l.landingPath)).Msg("no trade sheets found, keeping existing trades")
		return 0, nil
	}

	sortByUserID(files)

	var (
		rows [][]driver.Value
		seq  int64
	)

	for _, fn := range files {
		trades, err := data.ReadParquet[data.RawTrade](fn)
		if err != nil {
			return 0, err
		}

		for _, trade := range trades {
			row, ok := l.tradeRow(trade)
			if !ok {
				continue
			}
			seq++
			rows = append(rows, append([]driver.Value{seq}, row...))
		}
	}

	if err := l.stage(ctx, "negociacoes", tradeColumns, rows); err != nil {
		return 0, err
	}

	var inserted int64
	err = l.store.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := store.TxExec(ctx, tx, "DELETE FROM bronze.negociacoes"); err != nil {
			return err
		}

		inserted, err = store.TxExec(ctx, tx, "INSERT INTO bronze.negociacoes (id, "+store.ColumnNames(tradeColumns, "")+
			") SELECT seq, "+store.ColumnNames(tradeColumns, "")+" FROM landing.negociacoes ORDER BY seq")
		return err
	})

	return inserted, err
}

// tradeRow validates one sheet row. Rows missing a user, ticker, date or
// whole quantity are dropped; a malformed value is stored as NULL.
func (l *Layer) tradeRow(trade data.RawTrade) ([]driver.Value, bool) {
	ticker := strings.TrimSpace(trade.Ticker)
	if trade.UsuarioID <= 0 || ticker == "" {
		log.Warn().Object("Trade", trade).Msg("skipping trade without user or ticker")
		return nil, false
	}

	day, err := data.ParseDate(trade.DataMovimentacao)
	if err != nil {
		log.Warn().Err(err).Object("Trade", trade).Msg("skipping trade with malformed date")
		return nil, false
	}

	qty, err := data.ParseInteger(trade.Quantidade)
	if err != nil || qty == nil {
		log.Warn().Err(err).Object("Trade", trade).Str("Quantity", trade.Quantidade).Msg("skipping trade with malformed quantity")
		return nil, false
	}

	var valor *float64
	if trade.Valor != nil {
		valor, err = data.ParseDecimal(*trade.Valor)
		if err != nil {
			log.Warn().Err(err).Object("Trade", trade).Msg("malformed trade value stored as NULL")
		}
	}

	return []driver.Value{
		trade.UsuarioID,
		store.Text(trade.TipoAtivo),
		ticker,
		day,
		*qty,
		store.Text(trade.TipoAcao),
		store.TextPtr(trade.TipoNegociacao),
		store.Float(valor),
		l.extractedDate(trade.ExtractedDate),
	}, true
}

// sortByUserID orders <id>.parquet files numerically so that trade ids do not
// depend on directory listing order
func sortByUserID(files []string) {
	userID := func(fn string) (int64, bool) {
		base := strings.TrimSuffix(filepath.Base(fn), filepath.Ext(fn))
		id, err := strconv.ParseInt(base, 10, 64)
		return id, err == nil
	}

	sort.SliceStable(files, func(i, j int) bool {
		a, okA := userID(files[i])
		b, okB := userID(files[j])
		switch {
		case okA && okB:
			return a < b
		case okA != okB:
			return okA
		default:
			return files[i] < files[j]
		}
	})
}
