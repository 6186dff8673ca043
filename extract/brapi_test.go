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
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvelt/config"
	"github.com/penny-vault/pvelt/extract"
)

var _ = Describe("BrapiClient", func() {
	var (
		ctx  context.Context
		asOf = time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	)

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("follows pagination until the last page", func() {
		var tokens []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokens = append(tokens, r.URL.Query().Get("token"))
			w.Header().Set("Content-Type", "application/json")

			switch r.URL.Query().Get("page") {
			case "1":
				fmt.Fprint(w, `{"stocks": [
					{"stock": "PETR4", "name": "Petrobras PN", "close": 38.5, "change": -1.2, "volume": 1000, "market_cap": 5.1e11, "sector": "Energy Minerals", "type": "stock"},
					{"stock": "VALE3", "name": "Vale ON", "close": 70.1, "volume": null}
				], "hasNextPage": true}`)
			default:
				fmt.Fprint(w, `{"stocks": [{"stock": "ITUB4"}], "hasNextPage": false}`)
			}
		}))
		DeferCleanup(server.Close)

		client := extract.NewBrapiClient(config.BrapiConfig{URL: server.URL, Token: "secret", PageSize: 2})
		quotes, err := client.QuoteList(ctx, asOf)
		Expect(err).NotTo(HaveOccurred())

		Expect(quotes).To(HaveLen(3))
		Expect(tokens).To(Equal([]string{"secret", "secret"}))

		Expect(quotes[0].Stock).To(Equal("PETR4"))
		Expect(*quotes[0].Close).To(Equal(38.5))
		Expect(*quotes[0].Volume).To(Equal(int64(1000)))
		Expect(*quotes[0].Sector).To(Equal("Energy Minerals"))
		Expect(quotes[0].ExtractedDate).To(Equal("2024-03-15"))

		Expect(quotes[1].Volume).To(BeNil())
		Expect(quotes[1].Logo).To(BeNil())
		Expect(quotes[2].Name).To(BeNil())
	})

	It("reports an unexpected body", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"error": true}`)
		}))
		DeferCleanup(server.Close)

		_, err := extract.NewBrapiClient(config.BrapiConfig{URL: server.URL}).QuoteList(ctx, asOf)
		Expect(err).To(MatchError(extract.ErrUnexpectedResponse))
	})

	It("reports a client error status", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		DeferCleanup(server.Close)

		_, err := extract.NewBrapiClient(config.BrapiConfig{URL: server.URL}).QuoteList(ctx, asOf)
		Expect(err).To(MatchError(extract.ErrInvalidStatusCode))
	})
})
