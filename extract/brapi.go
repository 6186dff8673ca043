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

package extract

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/penny-vault/pvelt/config"
	"github.com/penny-vault/pvelt/data"
	"github.com/penny-vault/pvelt/pkginfo"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// maxPages guards against a server that always reports another page
const maxPages = 1000

type BrapiClient struct {
	client   *resty.Client
	limiter  *rate.Limiter
	url      string
	pageSize int
}

func NewBrapiClient(conf config.BrapiConfig) *BrapiClient {
	client := resty.New().
		SetHeader("User-Agent", pkginfo.ShortVersion()).
		SetRetryCount(3).
		SetRetryWaitTime(2 * time.Second)

	if conf.Token != "" {
		client.SetQueryParam("token", conf.Token)
	}

	limit := rate.Inf
	if conf.RequestsPerSecond > 0 {
		limit = rate.Limit(conf.RequestsPerSecond)
	}

	pageSize := conf.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	return &BrapiClient{
		client:   client,
		limiter:  rate.NewLimiter(limit, 1),
		url:      conf.URL,
		pageSize: pageSize,
	}
}

// QuoteList downloads every page of the quote list
func (b *BrapiClient) QuoteList(ctx context.Context, asOf time.Time) ([]data.RawQuote, error) {
	quotes := make([]data.RawQuote, 0, 2000)
	extracted := asOf.Format(data.DateLayout)

	for page := 1; page <= maxPages; page++ {
		if err := b.limiter.Wait(ctx); err != nil {
			return quotes, err
		}

		resp, err := b.client.R().
			SetContext(ctx).
			SetQueryParam("page", strconv.Itoa(page)).
			SetQueryParam("limit", strconv.Itoa(b.pageSize)).
			Get(b.url)
		if err != nil {
			log.Error().Err(err).Str("URL", b.url).Msg("resty returned an error when querying quote list")
			return quotes, err
		}

		if resp.StatusCode() >= 300 {
			log.Error().Int("StatusCode", resp.StatusCode()).Str("ResponseBody", resp.String()).Str("URL", b.url).
				Msg("received an invalid status code when querying quote list")
			return quotes, fmt.Errorf("%w (%d): %s", ErrInvalidStatusCode, resp.StatusCode(), resp.String())
		}

		body := resp.String()
		stocks := gjson.Get(body, "stocks")
		if !stocks.IsArray() {
			return quotes, fmt.Errorf("%w: missing stocks array on page %d", ErrUnexpectedResponse, page)
		}

		stocks.ForEach(func(_, stock gjson.Result) bool {
			quotes = append(quotes, quoteFromJSON(stock, extracted))
			return true
		})

		log.Debug().Int("Page", page).Int("NumQuotes", len(quotes)).Msg("fetched quote list page")

		if !gjson.Get(body, "hasNextPage").Bool() {
			break
		}
	}

	log.Info().Int("NumQuotes", len(quotes)).Msg("quote list downloaded")
	return quotes, nil
}

func quoteFromJSON(stock gjson.Result, extracted string) data.RawQuote {
	return data.RawQuote{
		Stock:         stock.Get("stock").String(),
		Name:          optString(stock.Get("name")),
		Close:         optFloat(stock.Get("close")),
		Change:        optFloat(stock.Get("change")),
		Volume:        optInt(stock.Get("volume")),
		MarketCap:     optFloat(stock.Get("market_cap")),
		Logo:          optString(stock.Get("logo")),
		Sector:        optString(stock.Get("sector")),
		Type:          optString(stock.Get("type")),
		ExtractedDate: extracted,
	}
}

func optString(val gjson.Result) *string {
	if !val.Exists() || val.Type == gjson.Null {
		return nil
	}
	s := val.String()
	return &s
}

func optFloat(val gjson.Result) *float64 {
	if val.Type != gjson.Number {
		return nil
	}
	f := val.Float()
	return &f
}

func optInt(val gjson.Result) *int64 {
	if val.Type != gjson.Number {
		return nil
	}
	n := val.Int()
	return &n
}
