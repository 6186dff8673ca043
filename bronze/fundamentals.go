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

type indicatorField struct {
	column  string
	percent bool
	value   func(*data.RawFundamental) string
}

// indicatorFields follows the order of data.IndicatorColumns
var indicatorFields = []indicatorField{
	{"cotacao", false, func(r *data.RawFundamental) string { return r.Cotacao }},
	{"p_l", false, func(r *data.RawFundamental) string { return r.PL }},
	{"p_vp", false, func(r *data.RawFundamental) string { return r.PVP }},
	{"psr", false, func(r *data.RawFundamental) string { return r.PSR }},
	{"dividend_yield", true, func(r *data.RawFundamental) string { return r.DivYield }},
	{"p_ativo", false, func(r *data.RawFundamental) string { return r.PAtivo }},
	{"p_capital_giro", false, func(r *data.RawFundamental) string { return r.PCapGiro }},
	{"p_ebit", false, func(r *data.RawFundamental) string { return r.PEBIT }},
	{"p_ativo_circ_liq", false, func(r *data.RawFundamental) string { return r.PAtivCircLiq }},
	{"ev_ebit", false, func(r *data.RawFundamental) string { return r.EVEBIT }},
	{"ev_ebitda", false, func(r *data.RawFundamental) string { return r.EVEBITDA }},
	{"mrg_ebit", true, func(r *data.RawFundamental) string { return r.MrgEBIT }},
	{"mrg_liquida", true, func(r *data.RawFundamental) string { return r.MrgLiq }},
	{"liquidez_corr", false, func(r *data.RawFundamental) string { return r.LiqCorr }},
	{"roic", true, func(r *data.RawFundamental) string { return r.ROIC }},
	{"roe", true, func(r *data.RawFundamental) string { return r.ROE }},
	{"liquidez_2_meses", false, func(r *data.RawFundamental) string { return r.Liq2Meses }},
	{"patrimonio_liquido", false, func(r *data.RawFundamental) string { return r.PatrimLiq }},
	{"div_bruta_patrim", false, func(r *data.RawFundamental) string { return r.DivBrutPatrim }},
	{"cres_rec_5a", true, func(r *data.RawFundamental) string { return r.CrescRec5a }},
}

var fundamentalColumns = func() []store.Column {
	cols := []store.Column{{Name: "ticker", Type: "VARCHAR NOT NULL"}}
	for _, field := range indicatorFields {
		cols = append(cols, store.Column{Name: field.column, Type: "DOUBLE"})
	}
	return append(cols, store.Column{Name: "extracted_date", Type: "DATE NOT NULL"})
}()

// loadFundamentals converts the scraped screener text to numbers and appends
// the rows of the processing date
func (l *Layer) loadFundamentals(ctx context.Context) (int64, error) {
	fn := data.FundamentalsFile(l.landingPath, l.asOf)
	raw, err := data.ReadParquet[data.RawFundamental](fn)
	if errors.Is(err, fs.ErrNotExist) {
		log.Info().Str("FileName", fn).Msg("no fundamentals extract for processing date")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	rows := make([][]driver.Value, 0, len(raw))
	for idx := range raw {
		rec := &raw[idx]
		ticker := strings.TrimSpace(rec.Papel)
		if ticker == "" {
			log.Warn().Int("Row", idx).Msg("skipping fundamentals row without ticker")
			continue
		}

		row := []driver.Value{int64(idx), ticker}
		for _, field := range indicatorFields {
			row = append(row, store.Float(parseIndicator(rec, field)))
		}
		row = append(row, l.extractedDate(rec.ExtractedDate))

		rows = append(rows, row)
	}

	if err := l.stage(ctx, "fundamentus_resultado", fundamentalColumns, rows); err != nil {
		return 0, err
	}

	return l.appendSnapshot(ctx, "fundamentus_resultado", fundamentalColumns)
}

func parseIndicator(rec *data.RawFundamental, field indicatorField) *float64 {
	parse := data.ParseDecimal
	if field.percent {
		parse = data.ParsePercent
	}

	raw := field.value(rec)
	val, err := parse(raw)
	if err != nil {
		log.Warn().Err(err).Str("Ticker", rec.Papel).Str("Column", field.column).Str("Value", raw).Msg("malformed number stored as NULL")
		return nil
	}

	return val
}
