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
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/penny-vault/pvelt/library"
	"github.com/penny-vault/pvelt/store"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display table sizes and recent runs of the analytical store",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		conf := mustLoadConfig()

		s, err := store.Open(ctx, conf.DatabasePath)
		if err != nil {
			log.Fatal().Err(err).Msg("could not open analytical store")
		}
		defer s.Close()

		summary, err := library.New(s).Summary(ctx)
		if err != nil {
			log.Error().Err(err).Msg("could not create store summary document")
			return
		}

		r, _ := glamour.NewTermRenderer(
			// detect background color and pick either the default dark or light theme
			glamour.WithAutoStyle(),
			// wrap output at specific width (default is 80)
			glamour.WithWordWrap(80),
		)

		out, err := r.Render(summary)
		if err != nil {
			log.Error().Err(err).Msg("could not render summary document")
			return
		}

		fmt.Print(out)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
