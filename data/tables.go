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

package data

import (
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// Schemas inside the analytical store
const (
	LayerLanding = "landing"
	LayerBronze  = "bronze"
	LayerSilver  = "silver"
	LayerGold    = "gold"
	LayerMeta    = "meta"
)

// CalendarStart is the first day of the generated calendar
var CalendarStart = time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC)

// Tables lists the persisted tables of each layer in build order
var Tables = map[string][]string{
	LayerBronze: {"tempo", "usuarios", "negociacoes", "brapi_quote_list", "fundamentus_resultado"},
	LayerSilver: {"tempo", "usuarios", "negociacoes", "cotacoes", "indicadores"},
	LayerGold: {"dim_tempo", "dim_acoes", "dim_tipo", "dim_usuarios",
		"fact_indicadores", "fact_oportunidades", "fact_negociacoes"},
}

// Qualified returns schema.table
func Qualified(schema, table string) string {
	return schema + "." + table
}

// TableCounts records the number of rows a run wrote per qualified table
type TableCounts map[string]int64

func (tc TableCounts) Add(table string, n int64) {
	tc[table] += n
}

func (tc TableCounts) Merge(other TableCounts) {
	for k, v := range other {
		tc[k] += v
	}
}

func (tc TableCounts) Total() int64 {
	var total int64
	for _, v := range tc {
		total += v
	}
	return total
}

func (tc TableCounts) MarshalZerologObject(e *zerolog.Event) {
	keys := make([]string, 0, len(tc))
	for k := range tc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		e.Int64(k, tc[k])
	}
}

// IndicatorColumns are the numeric screener columns carried from bronze to gold
var IndicatorColumns = []string{
	"cotacao", "p_l", "p_vp", "psr", "dividend_yield", "p_ativo", "p_capital_giro",
	"p_ebit", "p_ativo_circ_liq", "ev_ebit", "ev_ebitda", "mrg_ebit", "mrg_liquida",
	"liquidez_corr", "roic", "roe", "liquidez_2_meses", "patrimonio_liquido",
	"div_bruta_patrim", "cres_rec_5a",
}
