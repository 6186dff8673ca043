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

package extract_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvelt/data"
	"github.com/penny-vault/pvelt/extract"
)

var _ = Describe("ConvertSheets", func() {
	var (
		source  string
		landing string
		asOf    = time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	)

	writeFile := func(name, contents string) {
		Expect(os.WriteFile(filepath.Join(source, name), []byte(contents), 0o644)).To(Succeed())
	}

	BeforeEach(func() {
		dir := GinkgoT().TempDir()
		source = filepath.Join(dir, "sheets")
		landing = filepath.Join(dir, "landing")
		Expect(os.MkdirAll(source, 0o755)).To(Succeed())
	})

	It("converts the users and their trade sheets", func() {
		writeFile("usuarios.csv", "id,nome,email\n1, Ana ,ana@example.com\nx,Bad,bad@example.com\n2,Bruno,bruno@example.com\n")
		writeFile("1.csv", "tipo_ativo,ticker,data_movimentacao,quantidade,tipo_acao,tipo_negociacao,valor\n"+
			"acao,PETR4,2024-03-01,100,compra,,\n"+
			"acao,VALE3,2024-03-02,15,venda,fracionario,\"1.050,00\"\n")

		n, err := extract.ConvertSheets(source, landing, asOf)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(2))

		users, err := data.ReadParquet[data.RawUser](data.UsersFile(landing))
		Expect(err).NotTo(HaveOccurred())
		Expect(users).To(Equal([]data.RawUser{
			{ID: 1, Nome: "Ana", Email: "ana@example.com", ExtractedDate: "2024-03-15"},
			{ID: 2, Nome: "Bruno", Email: "bruno@example.com", ExtractedDate: "2024-03-15"},
		}))

		trades, err := data.ReadParquet[data.RawTrade](data.TradesFile(landing, 1))
		Expect(err).NotTo(HaveOccurred())
		Expect(trades).To(HaveLen(2))
		Expect(trades[0].UsuarioID).To(Equal(int64(1)))
		Expect(trades[0].TipoNegociacao).To(BeNil())
		Expect(*trades[1].TipoNegociacao).To(Equal("fracionario"))
		Expect(*trades[1].Valor).To(Equal("1.050,00"))

		Expect(data.TradesFile(landing, 2)).NotTo(BeAnExistingFile())
	})

	It("fails without a users sheet", func() {
		_, err := extract.ConvertSheets(source, landing, asOf)
		Expect(err).To(HaveOccurred())
	})
})
