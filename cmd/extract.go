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

	"github.com/penny-vault/pvelt/extract"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Download the raw sources into the landing zone",
	Run: func(cmd *cobra.Command, args []string) {
		conf := mustLoadConfig()
		if err := conf.ValidateExtract(); err != nil {
			log.Fatal().Err(err).Msg("invalid configuration")
		}

		if err := extract.New(conf, processingDate()).Run(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("extract failed")
		}
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	addDateFlag(extractCmd)
}
