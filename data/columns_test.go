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

package data_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvelt/data"
)

var _ = Describe("Columns", func() {
	DescribeTable("NormalizeHeader maps screener labels to landing columns",
		func(label, expected string) {
			Expect(data.NormalizeHeader(label)).To(Equal(expected))
		},
		Entry(nil, "Papel", "papel"),
		Entry(nil, "Cotação", "cotacao"),
		Entry(nil, "P/VP", "p_vp"),
		Entry(nil, "Div.Yield", "div_yield"),
		Entry(nil, "Mrg. Líq.", "mrg_liq"),
		Entry(nil, "Liq.2meses", "liq_2meses"),
		Entry(nil, "Patrim. Líq", "patrim_liq"),
		Entry(nil, "Dív.Brut/ Patrim.", "div_brut_patrim"),
		Entry(nil, "Cresc. Rec.5a", "cresc_rec_5a"),
	)

	It("builds a record and reports unknown headers", func() {
		rec, unknown := data.FundamentalFromColumns(map[string]string{
			"Papel":   "PETR4",
			"Cotação": " 38,50 ",
			"ROIC":    "15,20%",
			"Beta":    "1,1",
		})

		Expect(rec.Papel).To(Equal("PETR4"))
		Expect(rec.Cotacao).To(Equal("38,50"))
		Expect(rec.ROIC).To(Equal("15,20%"))
		Expect(unknown).To(ConsistOf("Beta"))
	})

	It("knows every normalized column", func() {
		Expect(data.KnownFundamentalHeader("ev_ebit")).To(BeTrue())
		Expect(data.KnownFundamentalHeader("beta")).To(BeFalse())
	})
})
