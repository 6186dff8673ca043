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
	"strings"

	"github.com/gosimple/slug"
)

// NormalizeHeader turns a scraped column label such as "Dív.Brut/ Patrim." into
// the landing column name div_brut_patrim
func NormalizeHeader(label string) string {
	return strings.ReplaceAll(slug.Make(label), "-", "_")
}

// fundamentalSetters maps normalized screener headers onto RawFundamental
var fundamentalSetters = map[string]func(*RawFundamental, string){
	"papel":           func(r *RawFundamental, v string) { r.Papel = v },
	"cotacao":         func(r *RawFundamental, v string) { r.Cotacao = v },
	"p_l":             func(r *RawFundamental, v string) { r.PL = v },
	"p_vp":            func(r *RawFundamental, v string) { r.PVP = v },
	"psr":             func(r *RawFundamental, v string) { r.PSR = v },
	"div_yield":       func(r *RawFundamental, v string) { r.DivYield = v },
	"p_ativo":         func(r *RawFundamental, v string) { r.PAtivo = v },
	"p_cap_giro":      func(r *RawFundamental, v string) { r.PCapGiro = v },
	"p_ebit":          func(r *RawFundamental, v string) { r.PEBIT = v },
	"p_ativ_circ_liq": func(r *RawFundamental, v string) { r.PAtivCircLiq = v },
	"ev_ebit":         func(r *RawFundamental, v string) { r.EVEBIT = v },
	"ev_ebitda":       func(r *RawFundamental, v string) { r.EVEBITDA = v },
	"mrg_ebit":        func(r *RawFundamental, v string) { r.MrgEBIT = v },
	"mrg_liq":         func(r *RawFundamental, v string) { r.MrgLiq = v },
	"liq_corr":        func(r *RawFundamental, v string) { r.LiqCorr = v },
	"roic":            func(r *RawFundamental, v string) { r.ROIC = v },
	"roe":             func(r *RawFundamental, v string) { r.ROE = v },
	"liq_2meses":      func(r *RawFundamental, v string) { r.Liq2Meses = v },
	"patrim_liq":      func(r *RawFundamental, v string) { r.PatrimLiq = v },
	"div_brut_patrim": func(r *RawFundamental, v string) { r.DivBrutPatrim = v },
	"cresc_rec_5a":    func(r *RawFundamental, v string) { r.CrescRec5a = v },
}

// KnownFundamentalHeader reports whether a normalized header has a landing column
func KnownFundamentalHeader(name string) bool {
	_, ok := fundamentalSetters[name]
	return ok
}

// FundamentalFromColumns builds a landing record from a header -> cell map.
// Unknown headers are returned so the caller can report drift.
func FundamentalFromColumns(cells map[string]string) (RawFundamental, []string) {
	var (
		rec     RawFundamental
		unknown []string
	)

	for label, val := range cells {
		name := NormalizeHeader(label)
		setter, ok := fundamentalSetters[name]
		if !ok {
			unknown = append(unknown, label)
			continue
		}
		setter(&rec, strings.TrimSpace(val))
	}

	return rec, unknown
}
