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

// Package gold builds the star schema from the conformed tables.
//
// Dimension keys are append-only: a tuple keeps the key it was first given
// and new tuples are numbered after the current maximum in tuple order. Facts
// are rebuilt on every run.
package gold

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/penny-vault/pvelt/data"
	"github.com/penny-vault/pvelt/store"
	"github.com/rs/zerolog/log"
)

type Layer struct {
	store  *store.Store
	screen data.Screen
}

func New(s *store.Store, screen data.Screen) *Layer {
	return &Layer{store: s, screen: screen}
}

func (l *Layer) Name() string {
	return data.LayerGold
}

func (l *Layer) Initialize(ctx context.Context) error {
	stmts := []string{
		"CREATE SCHEMA IF NOT EXISTS gold",
		`CREATE TABLE IF NOT EXISTS gold.dim_tempo (
	id BIGINT PRIMARY KEY,
	data DATE NOT NULL,
	ano BIGINT,
	mes BIGINT,
	dia BIGINT,
	semana BIGINT,
	trimestre BIGINT,
	semestre BIGINT
)`,
		"CREATE TABLE IF NOT EXISTS gold.dim_acoes (id BIGINT PRIMARY KEY, ticker VARCHAR, nome VARCHAR, logo VARCHAR, setor VARCHAR, tipo VARCHAR)",
		"CREATE TABLE IF NOT EXISTS gold.dim_tipo (id BIGINT PRIMARY KEY, tipo_ativo VARCHAR, tipo_acao VARCHAR, tipo_negociacao VARCHAR)",
		"CREATE TABLE IF NOT EXISTS gold.dim_usuarios (id BIGINT PRIMARY KEY, nome VARCHAR, email VARCHAR)",
		`CREATE TABLE IF NOT EXISTS gold.fact_indicadores (
	id BIGINT,
	tempo_id BIGINT,
	acao_id BIGINT,
	ticker VARCHAR,
	cotacao DOUBLE,
	p_vp DOUBLE,
	dividend_yield DOUBLE,
	ev_ebit DOUBLE,
	roic DOUBLE,
	p_l DOUBLE,
	liquidez_2_meses DOUBLE,
	cres_rec_5a DOUBLE
)`,
		`CREATE TABLE IF NOT EXISTS gold.fact_oportunidades (
	id BIGINT,
	tempo_id BIGINT,
	acao_id BIGINT,
	ticker VARCHAR,
	cotacao DOUBLE,
	p_vp DOUBLE,
	dividend_yield DOUBLE,
	ev_ebit DOUBLE,
	roic DOUBLE,
	p_l DOUBLE
)`,
		`CREATE TABLE IF NOT EXISTS gold.fact_negociacoes (
	id BIGINT,
	usuario_id BIGINT,
	acao_id BIGINT,
	tempo_id BIGINT,
	tipo_id BIGINT,
	ticker VARCHAR,
	quantidade BIGINT,
	valor_total DOUBLE,
	cotacao DOUBLE,
	p_vp DOUBLE,
	dividend_yield DOUBLE,
	ev_ebit DOUBLE,
	roic DOUBLE,
	p_l DOUBLE,
	liquidez_2_meses DOUBLE,
	cres_rec_5a DOUBLE
)`,
	}

	if err := l.store.ExecAll(ctx, stmts...); err != nil {
		return data.NewLayerError(data.LayerGold, "schema", err)
	}

	return nil
}

// Transform appends new dimension members and rebuilds every fact table
func (l *Layer) Transform(ctx context.Context) (data.TableCounts, error) {
	counts := data.TableCounts{}

	for _, table := range data.Tables[data.LayerSilver] {
		ok, err := l.store.TableExists(ctx, data.LayerSilver, table)
		if err != nil {
			return counts, data.NewLayerError(data.LayerGold, table, err)
		}
		if !ok {
			return counts, data.NewLayerError(data.LayerGold, table,
				fmt.Errorf("%w: %s", data.ErrMissingSource, data.Qualified(data.LayerSilver, table)))
		}
	}

	steps := []struct {
		table string
		run   func(context.Context) (int64, error)
	}{
		{"dim_tempo", l.buildCalendar},
		{"dim_acoes", l.buildSecurities},
		{"dim_tipo", l.buildTradeTypes},
		{"dim_usuarios", l.buildUsers},
		{"fact_indicadores", l.buildIndicators},
		{"fact_oportunidades", l.buildOpportunities},
		{"fact_negociacoes", l.buildTrades},
	}

	for _, step := range steps {
		n, err := step.run(ctx)
		if err != nil {
			return counts, data.NewLayerError(data.LayerGold, step.table, err)
		}

		counts.Add(data.Qualified(data.LayerGold, step.table), n)
		log.Info().Str("Table", data.Qualified(data.LayerGold, step.table)).Int64("NumRows", n).Msg("gold table updated")
	}

	return counts, nil
}

// replace swaps the contents of a fact table inside one transaction
func (l *Layer) replace(ctx context.Context, table, insert string, args ...any) (int64, error) {
	var inserted int64
	err := l.store.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := store.TxExec(ctx, tx, "DELETE FROM gold."+table); err != nil {
			return err
		}

		var err error
		inserted, err = store.TxExec(ctx, tx, insert, args...)
		return err
	})

	return inserted, err
}
