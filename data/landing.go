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
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Landing zone directories, relative to the configured landing path
const (
	QuotesDir       = "brapi"
	FundamentalsDir = "fundamentus"
	UsersDir        = "sheets/usuarios"
	TradesDir       = "sheets/negociacoes"
)

// RawQuote is one row of the daily quote-list extract
type RawQuote struct {
	Stock         string   `parquet:"name=stock, type=BYTE_ARRAY, convertedtype=UTF8"`
	Name          *string  `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Close         *float64 `parquet:"name=close, type=DOUBLE, repetitiontype=OPTIONAL"`
	Change        *float64 `parquet:"name=change, type=DOUBLE, repetitiontype=OPTIONAL"`
	Volume        *int64   `parquet:"name=volume, type=INT64, repetitiontype=OPTIONAL"`
	MarketCap     *float64 `parquet:"name=market_cap, type=DOUBLE, repetitiontype=OPTIONAL"`
	Logo          *string  `parquet:"name=logo, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Sector        *string  `parquet:"name=sector, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Type          *string  `parquet:"name=type, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	ExtractedDate string   `parquet:"name=extracted_date, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func (q RawQuote) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Ticker", q.Stock).Str("ExtractedDate", q.ExtractedDate)
}

// RawFundamental is one row of the screener table, exactly as scraped
type RawFundamental struct {
	Papel         string `parquet:"name=papel, type=BYTE_ARRAY, convertedtype=UTF8"`
	Cotacao       string `parquet:"name=cotacao, type=BYTE_ARRAY, convertedtype=UTF8"`
	PL            string `parquet:"name=p_l, type=BYTE_ARRAY, convertedtype=UTF8"`
	PVP           string `parquet:"name=p_vp, type=BYTE_ARRAY, convertedtype=UTF8"`
	PSR           string `parquet:"name=psr, type=BYTE_ARRAY, convertedtype=UTF8"`
	DivYield      string `parquet:"name=div_yield, type=BYTE_ARRAY, convertedtype=UTF8"`
	PAtivo        string `parquet:"name=p_ativo, type=BYTE_ARRAY, convertedtype=UTF8"`
	PCapGiro      string `parquet:"name=p_cap_giro, type=BYTE_ARRAY, convertedtype=UTF8"`
	PEBIT         string `parquet:"name=p_ebit, type=BYTE_ARRAY, convertedtype=UTF8"`
	PAtivCircLiq  string `parquet:"name=p_ativ_circ_liq, type=BYTE_ARRAY, convertedtype=UTF8"`
	EVEBIT        string `parquet:"name=ev_ebit, type=BYTE_ARRAY, convertedtype=UTF8"`
	EVEBITDA      string `parquet:"name=ev_ebitda, type=BYTE_ARRAY, convertedtype=UTF8"`
	MrgEBIT       string `parquet:"name=mrg_ebit, type=BYTE_ARRAY, convertedtype=UTF8"`
	MrgLiq        string `parquet:"name=mrg_liq, type=BYTE_ARRAY, convertedtype=UTF8"`
	LiqCorr       string `parquet:"name=liq_corr, type=BYTE_ARRAY, convertedtype=UTF8"`
	ROIC          string `parquet:"name=roic, type=BYTE_ARRAY, convertedtype=UTF8"`
	ROE           string `parquet:"name=roe, type=BYTE_ARRAY, convertedtype=UTF8"`
	Liq2Meses     string `parquet:"name=liq_2meses, type=BYTE_ARRAY, convertedtype=UTF8"`
	PatrimLiq     string `parquet:"name=patrim_liq, type=BYTE_ARRAY, convertedtype=UTF8"`
	DivBrutPatrim string `parquet:"name=div_brut_patrim, type=BYTE_ARRAY, convertedtype=UTF8"`
	CrescRec5a    string `parquet:"name=cresc_rec_5a, type=BYTE_ARRAY, convertedtype=UTF8"`
	ExtractedDate string `parquet:"name=extracted_date, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func (f RawFundamental) MarshalZerologObject(e *zerolog.Event) {
	e.Str("Ticker", f.Papel).Str("ExtractedDate", f.ExtractedDate)
}

// RawUser is one row of the users sheet
type RawUser struct {
	ID            int64  `parquet:"name=id, type=INT64"`
	Nome          string `parquet:"name=nome, type=BYTE_ARRAY, convertedtype=UTF8"`
	Email         string `parquet:"name=email, type=BYTE_ARRAY, convertedtype=UTF8"`
	ExtractedDate string `parquet:"name=extracted_date, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func (u RawUser) MarshalZerologObject(e *zerolog.Event) {
	e.Int64("UserID", u.ID).Str("Email", u.Email)
}

// RawTrade is one row of a per-user trade sheet
type RawTrade struct {
	UsuarioID        int64   `parquet:"name=usuario_id, type=INT64"`
	TipoAtivo        string  `parquet:"name=tipo_ativo, type=BYTE_ARRAY, convertedtype=UTF8"`
	Ticker           string  `parquet:"name=ticker, type=BYTE_ARRAY, convertedtype=UTF8"`
	DataMovimentacao string  `parquet:"name=data_movimentacao, type=BYTE_ARRAY, convertedtype=UTF8"`
	Quantidade       string  `parquet:"name=quantidade, type=BYTE_ARRAY, convertedtype=UTF8"`
	TipoAcao         string  `parquet:"name=tipo_acao, type=BYTE_ARRAY, convertedtype=UTF8"`
	TipoNegociacao   *string `parquet:"name=tipo_negociacao, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Valor            *string `parquet:"name=valor, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	ExtractedDate    string  `parquet:"name=extracted_date, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func (t RawTrade) MarshalZerologObject(e *zerolog.Event) {
	e.Int64("UserID", t.UsuarioID).Str("Ticker", t.Ticker).Str("Date", t.DataMovimentacao)
}

func QuotesFile(landingPath string, day time.Time) string {
	return filepath.Join(landingPath, QuotesDir, day.Format(DateLayout)+".parquet")
}

func FundamentalsFile(landingPath string, day time.Time) string {
	return filepath.Join(landingPath, FundamentalsDir, day.Format(DateLayout)+".parquet")
}

func UsersFile(landingPath string) string {
	return filepath.Join(landingPath, UsersDir, "usuarios.parquet")
}

func TradesFile(landingPath string, userID int64) string {
	return filepath.Join(landingPath, TradesDir, fmt.Sprintf("%d.parquet", userID))
}

func TradesGlob(landingPath string) string {
	return filepath.Join(landingPath, TradesDir, "*.parquet")
}
