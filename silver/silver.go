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

// Package silver conforms the bronze tables to the canonical model read by
// the dimensional layer. Source column names stop here.
package silver

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/penny-vault/pvelt/data"
	"github.com/penny-vault/pvelt/store"
	"github.com/rs/zerolog/log"
)

type Layer struct {
	store *store.Store
}

func New(s *store.Store) *Layer {
	return &Layer{store: s}
}

func (l *Layer) Name() string {
	return data.LayerSilver
}

func indicatorDefs() string {
	defs := make([]string, len(data.IndicatorColumns))
	for i, col := range data.IndicatorColumns {
		defs[i] = col + " DOUBLE"
	}
	return strings.Join(defs, ", ")
}

func (l *Layer) Initialize(ctx context.Context) error {
	stmts := []string{
		"CREATE SCHEMA IF NOT EXISTS silver",
		"CREATE TABLE IF NOT EXISTS silver.tempo (id BIGINT PRIMARY KEY, data DATE NOT NULL)",
		"CREATE TABLE IF NOT EXISTS silver.usuarios (id BIGINT, nome VARCHAR, email VARCHAR, extracted_date DATE)",
		`CREATE TABLE IF NOT EXISTS silver.negociacoes (
	id BIGINT,
	usuario_id BIGINT,
	tipo_ativo VARCHAR,
	ticker VARCHAR,
	data_movimentacao DATE,
	quantidade BIGINT,
	tipo_acao VARCHAR,
	tipo_negociacao VARCHAR,
	valor DOUBLE,
	extracted_date DATE
)`,
		`CREATE TABLE IF NOT EXISTS silver.cotacoes (
	id BIGINT PRIMARY KEY,
	ticker VARCHAR NOT NULL,
	nome VARCHAR,
	cotacao DOUBLE,
	variacao DOUBLE,
	volume BIGINT,
	valor_mercado DOUBLE,
	logo VARCHAR,
	setor VARCHAR,
	tipo VARCHAR,
	extracted_date DATE NOT NULL
)`,
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS silver.indicadores (id BIGINT PRIMARY KEY, ticker VARCHAR NOT NULL, %s, extracted_date DATE NOT NULL)",
			indicatorDefs()),
	}

	if err := l.store.ExecAll(ctx, stmts...); err != nil {
		return data.NewLayerError(data.LayerSilver, "schema", err)
	}

	return nil
}

// Transform copies new bronze rows into the conformed tables
func (l *Layer) Transform(ctx context.Context) (data.TableCounts, error) {
	counts := data.TableCounts{}

	for _, table := range data.Tables[data.LayerBronze] {
		ok, err := l.store.TableExists(ctx, data.LayerBronze, table)
		if err != nil {
			return counts, data.NewLayerError(data.LayerSilver, table, err)
		}
		if !ok {
			return counts, data.NewLayerError(data.LayerSilver, table,
				fmt.Errorf("%w: %s", data.ErrMissingSource, data.Qualified(data.LayerBronze, table)))
		}
	}

	steps := []struct {
		table string
		run   func(context.Context) (int64, error)
	}{
		{"tempo", l.conformCalendar},
		{"usuarios", l.conformUsers},
		{"negociacoes", l.conformTrades},
		{"cotacoes", l.conformQuotes},
		{"indicadores", l.conformIndicators},
	}

	for _, step := range steps {
		n, err := step.run(ctx)
		if err != nil {
			return counts, data.NewLayerError(data.LayerSilver, step.table, err)
		}

		counts.Add(data.Qualified(data.LayerSilver, step.table), n)
		log.Info().Str("Table", data.Qualified(data.LayerSilver, step.table)).Int64("NumRows", n).Msg("silver table updated")
	}

	return counts, nil
}

func (l *Layer) inTx(ctx context.Context, stmts ...string) (int64, error) {
	var affected int64
	err := l.store.WithTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range stmts {
			n, err := store.TxExec(ctx, tx, stmt)
			if err != nil {
				return err
			}
			affected = n
		}
		return nil
	})

	// the last statement is always the insert
	return affected, err
}

func (l *Layer) conformCalendar(ctx context.Context) (int64, error) {
	return l.inTx(ctx, `INSERT INTO silver.tempo (id, data)
SELECT new.id, new.data
FROM bronze.tempo AS new
LEFT JOIN silver.tempo AS old ON old.id = new.id
WHERE old.id IS NULL
ORDER BY new.id`)
}

func (l *Layer) conformUsers(ctx context.Context) (int64, error) {
	return l.inTx(ctx,
		"DELETE FROM silver.usuarios WHERE id IN (SELECT id FROM bronze.usuarios)",
		`INSERT INTO silver.usuarios (id, nome, email, extracted_date)
SELECT id, TRIM(nome), LOWER(TRIM(email)), extracted_date
FROM bronze.usuarios`)
}

// conformTrades rebuilds the trade snapshot. A missing negotiation kind is
// derived from the lot rule: multiples of 100 trade on the standard lot.
func (l *Layer) conformTrades(ctx context.Context) (int64, error) {
	return l.inTx(ctx,
		"DELETE FROM silver.negociacoes",
		`INSERT INTO silver.negociacoes
	(id, usuario_id, tipo_ativo, ticker, data_movimentacao, quantidade, tipo_acao, tipo_negociacao, valor, extracted_date)
SELECT
	id,
	usuario_id,
	LOWER(TRIM(tipo_ativo)),
	UPPER(TRIM(ticker)),
	data_movimentacao,
	quantidade,
	LOWER(TRIM(tipo_acao)),
	COALESCE(
		NULLIF(LOWER(TRIM(tipo_negociacao)), ''),
		CASE WHEN quantidade % 100 = 0 THEN 'lote_padrao' ELSE 'fracionario' END
	),
	valor,
	extracted_date
FROM bronze.negociacoes
ORDER BY id`)
}

func (l *Layer) conformQuotes(ctx context.Context) (int64, error) {
	return l.inTx(ctx, `INSERT INTO silver.cotacoes
	(id, ticker, nome, cotacao, variacao, volume, valor_mercado, logo, setor, tipo, extracted_date)
SELECT new.id, new.ticker, new.name, new.close, new.change, new.volume, new.market_cap,
	new.logo, new.sector, new.type, new.extracted_date
FROM (
	SELECT * REPLACE (UPPER(TRIM(ticker)) AS ticker)
	FROM bronze.brapi_quote_list
	QUALIFY row_number() OVER (PARTITION BY UPPER(TRIM(ticker)), extracted_date ORDER BY id) = 1
) AS new
LEFT JOIN silver.cotacoes AS old
	ON old.ticker = new.ticker AND old.extracted_date = new.extracted_date
WHERE old.id IS NULL
ORDER BY new.id`)
}

func (l *Layer) conformIndicators(ctx context.Context) (int64, error) {
	cols := strings.Join(data.IndicatorColumns, ", ")
	newCols := "new." + strings.Join(data.IndicatorColumns, ", new.")

	return l.inTx(ctx, fmt.Sprintf(`INSERT INTO silver.indicadores (id, ticker, %[1]s, extracted_date)
SELECT new.id, new.ticker, %[2]s, new.extracted_date
FROM (
	SELECT * REPLACE (UPPER(TRIM(ticker)) AS ticker)
	FROM bronze.fundamentus_resultado
	QUALIFY row_number() OVER (PARTITION BY UPPER(TRIM(ticker)), extracted_date ORDER BY id) = 1
) AS new
LEFT JOIN silver.indicadores AS old
	ON old.ticker = new.ticker AND old.extracted_date = new.extracted_date
WHERE old.id IS NULL
ORDER BY new.id`, cols, newCols))
}
