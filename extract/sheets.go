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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/penny-vault/pvelt/data"
	"github.com/rs/zerolog/log"
)

type sheetUser struct {
	ID    string `csv:"id"`
	Nome  string `csv:"nome"`
	Email string `csv:"email"`
}

type sheetTrade struct {
	TipoAtivo        string `csv:"tipo_ativo"`
	Ticker           string `csv:"ticker"`
	DataMovimentacao string `csv:"data_movimentacao"`
	Quantidade       string `csv:"quantidade"`
	TipoAcao         string `csv:"tipo_acao"`
	TipoNegociacao   string `csv:"tipo_negociacao"`
	Valor            string `csv:"valor"`
}

// ConvertSheets turns usuarios.csv and the per-user <id>.csv exports found in
// sourceDir into landing parquet files. It returns the number of trades written.
func ConvertSheets(sourceDir, landingPath string, asOf time.Time) (int, error) {
	extracted := asOf.Format(data.DateLayout)

	var users []*sheetUser
	if err := readCSV(filepath.Join(sourceDir, "usuarios.csv"), &users); err != nil {
		return 0, err
	}

	landingUsers := make([]data.RawUser, 0, len(users))
	for _, user := range users {
		id, err := strconv.ParseInt(strings.TrimSpace(user.ID), 10, 64)
		if err != nil {
			log.Warn().Str("UserID", user.ID).Str("Email", user.Email).Msg("skipping user with malformed id")
			continue
		}

		landingUsers = append(landingUsers, data.RawUser{
			ID:            id,
			Nome:          strings.TrimSpace(user.Nome),
			Email:         strings.TrimSpace(user.Email),
			ExtractedDate: extracted,
		})
	}

	if err := data.WriteParquet(data.UsersFile(landingPath), landingUsers); err != nil {
		return 0, err
	}

	numTrades := 0
	for _, user := range landingUsers {
		var trades []*sheetTrade
		err := readCSV(filepath.Join(sourceDir, fmt.Sprintf("%d.csv", user.ID)), &trades)
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug().Int64("UserID", user.ID).Msg("user has no trade sheet")
			continue
		}
		if err != nil {
			return numTrades, err
		}

		landingTrades := make([]data.RawTrade, 0, len(trades))
		for _, trade := range trades {
			landingTrades = append(landingTrades, data.RawTrade{
				UsuarioID:        user.ID,
				TipoAtivo:        trade.TipoAtivo,
				Ticker:           trade.Ticker,
				DataMovimentacao: trade.DataMovimentacao,
				Quantidade:       trade.Quantidade,
				TipoAcao:         trade.TipoAcao,
				TipoNegociacao:   data.StringPtr(trade.TipoNegociacao),
				Valor:            data.StringPtr(trade.Valor),
				ExtractedDate:    extracted,
			})
		}

		if err := data.WriteParquet(data.TradesFile(landingPath, user.ID), landingTrades); err != nil {
			return numTrades, err
		}
		numTrades += len(landingTrades)
	}

	log.Info().Int("NumUsers", len(landingUsers)).Int("NumTrades", numTrades).Msg("trade sheets converted")
	return numTrades, nil
}

func readCSV(fn string, out any) error {
	fh, err := os.Open(fn)
	if err != nil {
		return err
	}
	defer fh.Close()

	if err := gocsv.UnmarshalFile(fh, out); err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("could not parse csv")
		return err
	}

	return nil
}
