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

package bronze_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvelt/bronze"
	"github.com/penny-vault/pvelt/data"
	"github.com/penny-vault/pvelt/store"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type userRow struct {
	ID    int64  `db:"id"`
	Email string `db:"email"`
}

func ptr[T any](v T) *T {
	return &v
}

var _ = Describe("Bronze", func() {
	var (
		ctx     context.Context
		landing string
		s       *store.Store
		asOf    time.Time
	)

	run := func(asOf time.Time) data.TableCounts {
		layer := bronze.New(s, landing, asOf)
		Expect(layer.Initialize(ctx)).To(Succeed())
		counts, err := layer.Transform(ctx)
		Expect(err).NotTo(HaveOccurred())
		return counts
	}

	count := func(table string) int64 {
		n, err := s.Count(ctx, data.LayerBronze, table)
		Expect(err).NotTo(HaveOccurred())
		return n
	}

	BeforeEach(func() {
		ctx = context.Background()
		dir := GinkgoT().TempDir()
		landing = filepath.Join(dir, "landing")
		asOf = day(2010, time.January, 10)

		var err error
		s, err = store.Open(ctx, filepath.Join(dir, "pvelt.duckdb"))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(s.Close)
	})

	It("initializes repeatedly without error", func() {
		layer := bronze.New(s, landing, asOf)
		Expect(layer.Initialize(ctx)).To(Succeed())
		Expect(layer.Initialize(ctx)).To(Succeed())
		Expect(s.TableExists(ctx, "bronze", "fundamentus_resultado")).To(BeTrue())
	})

	Describe("calendar", func() {
		It("seeds every day from the calendar start through the processing date", func() {
			counts := run(asOf)
			Expect(counts["bronze.tempo"]).To(Equal(int64(10)))

			var first, last time.Time
			Expect(s.QueryRow(ctx, "SELECT data FROM bronze.tempo WHERE id = 1").Scan(&first)).To(Succeed())
			Expect(s.QueryRow(ctx, "SELECT data FROM bronze.tempo WHERE id = 10").Scan(&last)).To(Succeed())
			Expect(first.Format(data.DateLayout)).To(Equal("2010-01-01"))
			Expect(last.Format(data.DateLayout)).To(Equal("2010-01-10"))
		})

		It("grows by exactly the elapsed days and never renumbers", func() {
			run(asOf)
			Expect(run(asOf)["bronze.tempo"]).To(BeZero())

			counts := run(day(2010, time.January, 13))
			Expect(counts["bronze.tempo"]).To(Equal(int64(3)))
			Expect(count("tempo")).To(Equal(int64(13)))

			var id int64
			Expect(s.QueryRow(ctx, "SELECT id FROM bronze.tempo WHERE data = DATE '2010-01-05'").Scan(&id)).To(Succeed())
			Expect(id).To(Equal(int64(5)))
		})

		It("does not shrink for an earlier processing date", func() {
			run(asOf)
			Expect(run(day(2010, time.January, 2))["bronze.tempo"]).To(BeZero())
			Expect(count("tempo")).To(Equal(int64(10)))
		})
	})

	Describe("quote snapshots", func() {
		BeforeEach(func() {
			Expect(data.WriteParquet(data.QuotesFile(landing, asOf), []data.RawQuote{
				{Stock: "PETR4", Name: ptr("Petrobras"), Close: ptr(38.5), Volume: ptr(int64(1000)), ExtractedDate: "2010-01-10"},
				{Stock: "VALE3", Name: ptr("Vale"), ExtractedDate: "2010-01-10"},
				{Stock: "PETR4", Name: ptr("Petrobras dup"), ExtractedDate: "2010-01-10"},
				{Stock: "  ", ExtractedDate: "2010-01-10"},
			})).To(Succeed())
		})

		It("is idempotent for the same extraction date", func() {
			Expect(run(asOf)["bronze.brapi_quote_list"]).To(Equal(int64(2)))
			Expect(run(asOf)["bronze.brapi_quote_list"]).To(BeZero())
			Expect(count("brapi_quote_list")).To(Equal(int64(2)))
		})

		It("keeps the first row of a repeated key", func() {
			run(asOf)

			var name string
			Expect(s.QueryRow(ctx, "SELECT name FROM bronze.brapi_quote_list WHERE ticker = 'PETR4'").Scan(&name)).To(Succeed())
			Expect(name).To(Equal("Petrobras"))
		})

		It("continues ids on the next extraction date", func() {
			run(asOf)

			next := day(2010, time.January, 11)
			Expect(data.WriteParquet(data.QuotesFile(landing, next), []data.RawQuote{
				{Stock: "PETR4", ExtractedDate: "2010-01-11"},
			})).To(Succeed())

			run(next)

			var id int64
			Expect(s.QueryRow(ctx, "SELECT id FROM bronze.brapi_quote_list WHERE extracted_date = DATE '2010-01-11'").Scan(&id)).To(Succeed())
			Expect(id).To(Equal(int64(3)))
		})

		It("treats a missing extract as no new rows", func() {
			counts := run(day(2010, time.January, 11))
			Expect(counts["bronze.brapi_quote_list"]).To(BeZero())
			Expect(counts["bronze.fundamentus_resultado"]).To(BeZero())
		})
	})

	Describe("fundamental snapshots", func() {
		BeforeEach(func() {
			Expect(data.WriteParquet(data.FundamentalsFile(landing, asOf), []data.RawFundamental{
				{Papel: "PETR4", Cotacao: "38,50", PVP: "0,85", DivYield: "12,34%", ROIC: "15,20%",
					Liq2Meses: "1.234.567,00", PL: "abc", CrescRec5a: "-", ExtractedDate: "2010-01-10"},
				{Papel: "", Cotacao: "1,00", ExtractedDate: "2010-01-10"},
			})).To(Succeed())
		})

		It("normalizes locale numbers and nulls malformed fields", func() {
			Expect(run(asOf)["bronze.fundamentus_resultado"]).To(Equal(int64(1)))

			var (
				cotacao, pvp, dy, roic, liq float64
				pl, growth                  sql.NullFloat64
			)
			Expect(s.QueryRow(ctx, `SELECT cotacao, p_vp, dividend_yield, roic, liquidez_2_meses, p_l, cres_rec_5a
				FROM bronze.fundamentus_resultado`).Scan(&cotacao, &pvp, &dy, &roic, &liq, &pl, &growth)).To(Succeed())

			Expect(cotacao).To(BeNumerically("~", 38.5, 1e-9))
			Expect(pvp).To(BeNumerically("~", 0.85, 1e-9))
			Expect(dy).To(BeNumerically("~", 0.1234, 1e-9))
			Expect(roic).To(BeNumerically("~", 0.152, 1e-9))
			Expect(liq).To(BeNumerically("~", 1234567.0, 1e-6))
			Expect(pl.Valid).To(BeFalse())
			Expect(growth.Valid).To(BeFalse())
		})
	})

	Describe("users", func() {
		It("upserts by id and rejects an email owned by another user", func() {
			Expect(data.WriteParquet(data.UsersFile(landing), []data.RawUser{
				{ID: 1, Nome: "Ana", Email: "ana@example.com", ExtractedDate: "2010-01-10"},
				{ID: 2, Nome: "Bruno", Email: "bruno@example.com", ExtractedDate: "2010-01-10"},
			})).To(Succeed())
			run(asOf)
			Expect(count("usuarios")).To(Equal(int64(2)))

			Expect(data.WriteParquet(data.UsersFile(landing), []data.RawUser{
				{ID: 1, Nome: "Ana Maria", Email: "ana@example.com", ExtractedDate: "2010-01-11"},
				{ID: 3, Nome: "Carla", Email: "BRUNO@example.com", ExtractedDate: "2010-01-11"},
			})).To(Succeed())
			run(day(2010, time.January, 11))

			Expect(count("usuarios")).To(Equal(int64(2)))

			var nome string
			Expect(s.QueryRow(ctx, "SELECT nome FROM bronze.usuarios WHERE id = 1").Scan(&nome)).To(Succeed())
			Expect(nome).To(Equal("Ana Maria"))
		})

		It("keeps the stored row of a user whose new email belongs to someone else", func() {
			Expect(data.WriteParquet(data.UsersFile(landing), []data.RawUser{
				{ID: 1, Nome: "Ana", Email: "ana@example.com", ExtractedDate: "2010-01-10"},
				{ID: 2, Nome: "Bruno", Email: "bruno@example.com", ExtractedDate: "2010-01-10"},
			})).To(Succeed())
			run(asOf)

			Expect(data.WriteParquet(data.UsersFile(landing), []data.RawUser{
				{ID: 2, Nome: "Bruno", Email: "ANA@example.com", ExtractedDate: "2010-01-11"},
			})).To(Succeed())
			counts := run(day(2010, time.January, 11))
			Expect(counts["bronze.usuarios"]).To(BeZero())

			var users []userRow
			Expect(s.Select(ctx, &users, "SELECT id, email FROM bronze.usuarios ORDER BY id")).To(Succeed())
			Expect(users).To(Equal([]userRow{{1, "ana@example.com"}, {2, "bruno@example.com"}}))
		})

		It("releases an email changed earlier in the same sheet", func() {
			Expect(data.WriteParquet(data.UsersFile(landing), []data.RawUser{
				{ID: 1, Nome: "Ana", Email: "shared@example.com", ExtractedDate: "2010-01-10"},
				{ID: 1, Nome: "Ana", Email: "ana@example.com", ExtractedDate: "2010-01-10"},
				{ID: 2, Nome: "Bruno", Email: "shared@example.com", ExtractedDate: "2010-01-10"},
			})).To(Succeed())
			counts := run(asOf)
			Expect(counts["bronze.usuarios"]).To(Equal(int64(2)))

			var users []userRow
			Expect(s.Select(ctx, &users, "SELECT id, email FROM bronze.usuarios ORDER BY id")).To(Succeed())
			Expect(users).To(Equal([]userRow{{1, "ana@example.com"}, {2, "shared@example.com"}}))
		})

		It("lets two stored users swap emails", func() {
			Expect(data.WriteParquet(data.UsersFile(landing), []data.RawUser{
				{ID: 1, Nome: "Ana", Email: "ana@example.com", ExtractedDate: "2010-01-10"},
				{ID: 2, Nome: "Bruno", Email: "bruno@example.com", ExtractedDate: "2010-01-10"},
			})).To(Succeed())
			run(asOf)

			Expect(data.WriteParquet(data.UsersFile(landing), []data.RawUser{
				{ID: 1, Nome: "Ana", Email: "bruno@example.com", ExtractedDate: "2010-01-11"},
				{ID: 2, Nome: "Bruno", Email: "ana@example.com", ExtractedDate: "2010-01-11"},
			})).To(Succeed())
			run(day(2010, time.January, 11))

			var users []userRow
			Expect(s.Select(ctx, &users, "SELECT id, email FROM bronze.usuarios ORDER BY id")).To(Succeed())
			Expect(users).To(Equal([]userRow{{1, "bruno@example.com"}, {2, "ana@example.com"}}))
		})
	})

	Describe("trades", func() {
		BeforeEach(func() {
			Expect(data.WriteParquet(data.TradesFile(landing, 10), []data.RawTrade{
				{UsuarioID: 10, TipoAtivo: "acao", Ticker: "VALE3", DataMovimentacao: "2010-01-05", Quantidade: "50", TipoAcao: "compra", ExtractedDate: "2010-01-10"},
			})).To(Succeed())
			Expect(data.WriteParquet(data.TradesFile(landing, 2), []data.RawTrade{
				{UsuarioID: 2, TipoAtivo: "acao", Ticker: "PETR4", DataMovimentacao: "2010-01-04", Quantidade: "100", TipoAcao: "compra", Valor: ptr("3.850,00"), ExtractedDate: "2010-01-10"},
				{UsuarioID: 2, TipoAtivo: "acao", Ticker: "PETR4", DataMovimentacao: "2010-01-04", Quantidade: "dez", TipoAcao: "compra", ExtractedDate: "2010-01-10"},
				{UsuarioID: 2, TipoAtivo: "acao", Ticker: "PETR4", DataMovimentacao: "2010-01-06", Quantidade: "100", TipoAcao: "venda", ExtractedDate: "2010-01-10"},
			})).To(Succeed())
		})

		It("numbers valid trades in user order and drops malformed rows", func() {
			Expect(run(asOf)["bronze.negociacoes"]).To(Equal(int64(3)))

			var tickers []string
			Expect(s.Select(ctx, &tickers, "SELECT ticker FROM bronze.negociacoes ORDER BY id")).To(Succeed())
			Expect(tickers).To(Equal([]string{"PETR4", "PETR4", "VALE3"}))

			var valor float64
			Expect(s.QueryRow(ctx, "SELECT valor FROM bronze.negociacoes WHERE id = 1").Scan(&valor)).To(Succeed())
			Expect(valor).To(BeNumerically("~", 3850.0, 1e-9))
		})

		It("replaces the snapshot on every run", func() {
			run(asOf)
			run(asOf)
			Expect(count("negociacoes")).To(Equal(int64(3)))
		})
	})
})
