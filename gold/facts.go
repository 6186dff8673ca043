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

package gold

import "context"

// buildIndicators produces one fact per conformed indicator snapshot. The
// price falls back to the quote of the same ticker and day when the screener
// had none.
func (l *Layer) buildIndicators(ctx context.Context) (int64, error) {
	return l.replace(ctx, "fact_indicadores", `INSERT INTO gold.fact_indicadores
	(id, tempo_id, acao_id, ticker, cotacao, p_vp, dividend_yield, ev_ebit, roic, p_l, liquidez_2_meses, cres_rec_5a)
SELECT
	ind.id,
	t.id,
	a.id,
	ind.ticker,
	COALESCE(ind.cotacao, c.cotacao),
	ind.p_vp,
	ind.dividend_yield,
	ind.ev_ebit,
	ind.roic,
	ind.p_l,
	ind.liquidez_2_meses,
	ind.cres_rec_5a
FROM silver.indicadores AS ind
LEFT JOIN gold.dim_tempo AS t
	ON t.data = ind.extracted_date
LEFT JOIN silver.cotacoes AS c
	ON c.ticker = ind.ticker AND c.extracted_date = ind.extracted_date
LEFT JOIN gold.dim_acoes AS a
	ON c.id IS NOT NULL
	AND a.ticker IS NOT DISTINCT FROM c.ticker
	AND a.nome IS NOT DISTINCT FROM c.nome
	AND a.logo IS NOT DISTINCT FROM c.logo
	AND a.setor IS NOT DISTINCT FROM c.setor
	AND a.tipo IS NOT DISTINCT FROM c.tipo
QUALIFY row_number() OVER (PARTITION BY ind.id ORDER BY a.id) = 1
ORDER BY ind.id`)
}

// buildOpportunities keeps the indicator facts passing the screen, one row
// per distinct (ticker, price, ratios) tuple
func (l *Layer) buildOpportunities(ctx context.Context) (int64, error) {
	s := l.screen
	return l.replace(ctx, "fact_oportunidades", `INSERT INTO gold.fact_oportunidades
	(id, tempo_id, acao_id, ticker, cotacao, p_vp, dividend_yield, ev_ebit, roic, p_l)
SELECT id, tempo_id, acao_id, ticker, cotacao, p_vp, dividend_yield, ev_ebit, roic, p_l
FROM gold.fact_indicadores
WHERE liquidez_2_meses > ?
	AND cotacao > ?
	AND ev_ebit > ?
	AND p_vp < ?
	AND roic > ?
	AND p_l > ?
	AND cres_rec_5a > ?
QUALIFY row_number() OVER (
	PARTITION BY ticker, cotacao, p_vp, dividend_yield, ev_ebit, roic, p_l
	ORDER BY tempo_id, id
) = 1
ORDER BY id`, s.MinLiquidity, s.MinPrice, s.MinEVEBIT, s.MaxPVP, s.MinROIC, s.MinPL, s.MinRevenueGrowth)
}

// buildTrades prices every trade with the indicator fact of its ticker and
// day. Unmatched lookups leave the enrichment columns NULL; the trade is kept.
func (l *Layer) buildTrades(ctx context.Context) (int64, error) {
	return l.replace(ctx, "fact_negociacoes", `INSERT INTO gold.fact_negociacoes
	(id, usuario_id, acao_id, tempo_id, tipo_id, ticker, quantidade, valor_total,
	 cotacao, p_vp, dividend_yield, ev_ebit, roic, p_l, liquidez_2_meses, cres_rec_5a)
SELECT
	neg.id,
	du.id,
	fi.acao_id,
	t.id,
	tp.id,
	neg.ticker,
	neg.quantidade,
	fi.cotacao * neg.quantidade,
	fi.cotacao,
	fi.p_vp,
	fi.dividend_yield,
	fi.ev_ebit,
	fi.roic,
	fi.p_l,
	fi.liquidez_2_meses,
	fi.cres_rec_5a
FROM silver.negociacoes AS neg
LEFT JOIN gold.dim_tempo AS t
	ON t.data = neg.data_movimentacao
LEFT JOIN gold.fact_indicadores AS fi
	ON fi.ticker = neg.ticker AND fi.tempo_id = t.id
LEFT JOIN gold.dim_tipo AS tp
	ON tp.tipo_ativo IS NOT DISTINCT FROM neg.tipo_ativo
	AND tp.tipo_acao IS NOT DISTINCT FROM neg.tipo_acao
	AND tp.tipo_negociacao IS NOT DISTINCT FROM neg.tipo_negociacao
LEFT JOIN silver.usuarios AS u
	ON u.id = neg.usuario_id
LEFT JOIN gold.dim_usuarios AS du
	ON u.id IS NOT NULL
	AND du.nome IS NOT DISTINCT FROM u.nome
	AND du.email IS NOT DISTINCT FROM u.email
QUALIFY row_number() OVER (PARTITION BY neg.id ORDER BY fi.id, du.id) = 1
ORDER BY neg.id`)
}
