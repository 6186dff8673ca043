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
	"github.com/penny-vault/pvelt/warehouse"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Copy the gold star schema to a PostgreSQL warehouse",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		conf := mustLoadConfig()

		if conf.Warehouse.URL == "" {
			log.Fatal().Msg("warehouse.url is not configured")
		}

		s, err := store.Open(ctx, conf.DatabasePath)
		if err != nil {
			log.Fatal().Err(err).Msg("could not open analytical store")
		}
		defer s.Close()

		counts, err := warehouse.Publish(ctx, s, conf.Warehouse.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("publish failed")
		}

		log.Info().Object("Tables", counts).Msg("warehouse updated")
	},
}

func init() {
	rootCmd.AddCommand(publishCmd)

	publishCmd.Flags().String("warehouse-url", "", "PostgreSQL connection string")
	if err := viper.BindPFlag("warehouse.url", publishCmd.Flags().Lookup("warehouse-url")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for warehouse-url failed")
	}
}
