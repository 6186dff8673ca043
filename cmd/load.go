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

package cmd

import (
	"context"

	"github.com/penny-vault/pvelt/store"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Export the layers as parquet and upload the gold files",
	Long: `The load sub-command writes every bronze, silver and gold table to
<layer_path>/<table>.parquet. When a Backblaze bucket is configured the gold
files are uploaded under a directory named after the processing date, and when
a warehouse url is configured the gold tables are published to PostgreSQL.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		conf := mustLoadConfig()

		s, err := store.Open(ctx, conf.DatabasePath)
		if err != nil {
			log.Fatal().Err(err).Msg("could not open analytical store")
		}
		defer s.Close()

		if err := load(ctx, conf, s, processingDate()); err != nil {
			log.Fatal().Err(err).Msg("load failed")
		}
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
	addDateFlag(loadCmd)
}
