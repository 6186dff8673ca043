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

package pipeline_test

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvelt/data"
	"github.com/penny-vault/pvelt/pipeline"
	"github.com/penny-vault/pvelt/store"
)

var errBoom = errors.New("boom")

type failingLayer struct{}

func (failingLayer) Name() string { return "failing" }
func (failingLayer) Initialize(ctx context.Context) error { return nil }
func (failingLayer) Transform(ctx context.Context) (data.TableCounts, error) {
	return data.TableCounts{"failing.table": 1}, errBoom
}

func ptr[T any](v T) *T {
	return &v
}

var _ = Describe("Pipeline", func() {
	var (
		ctx     context.Context
		dir     string
		landing string
		s       *store.Store
		asOf    = time.Date(2010, time.January, 5, 0, 0, 0, 0, time.UTC)
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		landing = filepath.Join(dir, "landing")

		var err error
		s, err = store.Open(ctx, filepath.Join(dir, "pvelt.duckdb"))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(s.Close)

		Expect(data.WriteParquet(data.QuotesFile(landing, asOf), []data.RawQuote{
			{Stock: "AAA", Name: ptr("Alpha"), Close: ptr(10.0), ExtractedDate: "2010-01-05"},
			{Stock: "BBB", Name: ptr("Beta"), Close: ptr(20.0), ExtractedDate: "2010-01-05"},
		})).To(Succeed())
		Expect(data.WriteParquet(data.FundamentalsFile(landing, asOf), []data.RawFundamental{
			{Papel: "AAA", Cotacao: "10,00", PVP: "0,80", EVEBIT: "5,00", ROIC: "15,00%", PL: "8,00",
				Liq2Meses: "200.000,00", CrescRec5a: "5,00%", ExtractedDate: "2010-01-05"},
			{Papel: "BBB", Cotacao: "20,00", PVP: "1,50", EVEBIT: "5,00", ROIC: "15,00%", PL: "8,00",
				Liq2Meses: "200.000,00", CrescRec5a: "5,00%", ExtractedDate: "2010-01-05"},
		})).To(Succeed())
		Expect(data.WriteParquet(data.UsersFile(landing), []data.RawUser{
			{ID: 1, Nome: "Ana", Email: "ana@example.com", ExtractedDate: "2010-01-05"},
		})).To(Succeed())
		Expect(data.WriteParquet(data.TradesFile(landing, 1), []data.RawTrade{
			{UsuarioID: 1, TipoAtivo: "acao", Ticker: "AAA", DataMovimentacao: "2010-01-05", Quantidade: "100", TipoAcao: "compra", ExtractedDate: "2010-01-05"},
			{UsuarioID: 1, TipoAtivo: "acao", Ticker: "CCC", DataMovimentacao: "2010-01-04", Quantidade: "3", TipoAcao: "compra", ExtractedDate: "2010-01-05"},
		})).To(Succeed())
	})

	It("builds every layer from the landing extracts", func() {
		summary, err := pipeline.New(s, landing, data.DefaultScreen, asOf).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Status).To(Equal(pipeline.StatusSuccess))
		Expect(summary.Tables["bronze.tempo"]).To(Equal(int64(5)))
		Expect(summary.Tables["gold.fact_negociacoes"]).To(Equal(int64(2)))
		Expect(summary.Tables["gold.fact_oportunidades"]).To(Equal(int64(1)))

		var ticker string
		Expect(s.QueryRow(ctx, "SELECT ticker FROM gold.fact_oportunidades").Scan(&ticker)).To(Succeed())
		Expect(ticker).To(Equal("AAA"))
	})

	It("leaves every table unchanged when rerun with the same inputs", func() {
		_, err := pipeline.New(s, landing, data.DefaultScreen, asOf).Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		before := map[string]int64{}
		for _, layer := range []string{data.LayerBronze, data.LayerSilver, data.LayerGold} {
			for _, table := range data.Tables[layer] {
				n, err := s.Count(ctx, layer, table)
				Expect(err).NotTo(HaveOccurred())
				before[data.Qualified(layer, table)] = n
			}
		}

		summary, err := pipeline.New(s, landing, data.DefaultScreen, asOf).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Tables["bronze.brapi_quote_list"]).To(BeZero())
		Expect(summary.Tables["silver.cotacoes"]).To(BeZero())
		Expect(summary.Tables["gold.dim_acoes"]).To(BeZero())

		for qualified, n := range before {
			var after int64
			Expect(s.QueryRow(ctx, "SELECT count(*) FROM "+qualified).Scan(&after)).To(Succeed())
			Expect(after).To(Equal(n), qualified)
		}
	})

	It("extends the calendar by the elapsed days on a later run", func() {
		_, err := pipeline.New(s, landing, data.DefaultScreen, asOf).Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		summary, err := pipeline.New(s, landing, data.DefaultScreen, asOf.AddDate(0, 0, 3)).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Tables["bronze.tempo"]).To(Equal(int64(3)))
		Expect(s.Count(ctx, "gold", "dim_tempo")).To(Equal(int64(8)))
	})

	It("records successful and failed runs", func() {
		_, err := pipeline.New(s, landing, data.DefaultScreen, asOf).Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		summary, err := pipeline.NewWithLayers(s, asOf, failingLayer{}).Run(ctx)
		Expect(err).To(MatchError(errBoom))
		Expect(summary.Status).To(Equal(pipeline.StatusFailed))
		Expect(summary.Tables["failing.table"]).To(Equal(int64(1)))

		runs, err := pipeline.History(ctx, s, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(runs).To(HaveLen(2))
		Expect(runs[0].Status).To(Equal(pipeline.StatusFailed))
		Expect(runs[0].Error.String).To(Equal("boom"))
		Expect(runs[1].Status).To(Equal(pipeline.StatusSuccess))

		counts, err := runs[1].Counts()
		Expect(err).NotTo(HaveOccurred())
		Expect(counts["gold.fact_negociacoes"]).To(Equal(int64(2)))
	})

	It("has no history before the first run", func() {
		runs, err := pipeline.History(ctx, s, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(runs).To(BeEmpty())
	})

	It("exports each layer as parquet files", func() {
		_, err := pipeline.New(s, landing, data.DefaultScreen, asOf).Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		goldDir := filepath.Join(dir, "gold")
		files, err := pipeline.ExportAll(ctx, s, pipeline.Directories{
			data.LayerSilver: filepath.Join(dir, "silver"),
			data.LayerGold:   goldDir,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(files).To(HaveLen(len(data.Tables[data.LayerGold])))
		Expect(files).To(ContainElement(filepath.Join(goldDir, "fact_negociacoes.parquet")))
		Expect(filepath.Join(dir, "silver", "cotacoes.parquet")).To(BeAnExistingFile())

		var n int64
		Expect(s.QueryRow(ctx, "SELECT count(*) FROM read_parquet("+store.Quote(files[0])+")").Scan(&n)).To(Succeed())
		Expect(n).To(BeNumerically(">", 0))
	})
})
