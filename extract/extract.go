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

// Package extract pulls the raw sources into the landing zone as parquet
// files partitioned by extraction date
package extract

import (
	"context"
	"errors"
	"time"

	"github.com/penny-vault/pvelt/config"
	"github.com/penny-vault/pvelt/data"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidStatusCode  = errors.New("invalid status code")
	ErrUnexpectedResponse = errors.New("unexpected response format")
)

type Extractor struct {
	conf *config.Config
	asOf time.Time
}

func New(conf *config.Config, asOf time.Time) *Extractor {
	return &Extractor{conf: conf, asOf: data.Day(asOf)}
}

// Run extracts every source. A failing source does not stop the others; all
// failures are returned together.
func (e *Extractor) Run(ctx context.Context) error {
	var errs []error

	if err := e.Quotes(ctx); err != nil {
		log.Error().Err(err).Str("Source", data.QuotesDir).Msg("extract failed")
		errs = append(errs, err)
	}

	if err := e.Fundamentals(ctx); err != nil {
		log.Error().Err(err).Str("Source", data.FundamentalsDir).Msg("extract failed")
		errs = append(errs, err)
	}

	if err := e.Sheets(); err != nil {
		log.Error().Err(err).Str("Source", "sheets").Msg("extract failed")
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Quotes saves the reference quote list for the extraction date
func (e *Extractor) Quotes(ctx context.Context) error {
	quotes, err := NewBrapiClient(e.conf.Brapi).QuoteList(ctx, e.asOf)
	if err != nil {
		return err
	}

	return data.WriteParquet(data.QuotesFile(e.conf.LandingPath, e.asOf), quotes)
}

// Fundamentals saves the screener table for the extraction date
func (e *Extractor) Fundamentals(ctx context.Context) error {
	rows, err := NewFundamentusClient(e.conf.Fundamentus).Resultado(ctx, e.asOf)
	if err != nil {
		return err
	}

	return data.WriteParquet(data.FundamentalsFile(e.conf.LandingPath, e.asOf), rows)
}

// Sheets converts the user and trade sheet exports
func (e *Extractor) Sheets() error {
	_, err := ConvertSheets(e.conf.TradesSourcePath, e.conf.LandingPath, e.asOf)
	return err
}
