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
	"strings"

	"github.com/penny-vault/pvelt/pkginfo"
	"github.com/penny-vault/pvelt/store"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	printDeps   bool
	printShort  bool
	printEngine bool
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the pvelt build and analytical engine versions",
	Long: `Print the pvelt release, the module it was built from and, with --engine,
the version of the embedded DuckDB engine that reads and writes the store file.
A store written by a newer engine cannot be opened by an older one.`,
	Run: func(cmd *cobra.Command, args []string) {
		if printShort {
			fmt.Println(pkginfo.ShortVersion())
			return
		}

		fmt.Println(pkginfo.BuildVersionString())
		fmt.Printf("Module: %s\n", pkginfo.ModulePath())

		if printEngine {
			engine, err := engineVersion(cmd.Context())
			if err != nil {
				log.Error().Err(err).Msg("could not start the analytical engine")
			} else {
				fmt.Printf("DuckDB: %s\n", engine)
			}
		}

		if printDeps {
			fmt.Printf("\nLinked modules:\n")
			fmt.Println(strings.Join(pkginfo.GetDependencyList(), "\n"))
		}
	},
}

// engineVersion asks an in-memory store for the DuckDB library version
func engineVersion(ctx context.Context) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := store.Open(ctx, "")
	if err != nil {
		return "", err
	}
	defer s.Close()

	return s.EngineVersion(ctx)
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&printDeps, "deps", "d", false, "list the modules linked into the binary")
	versionCmd.Flags().BoolVarP(&printShort, "short", "s", false, "print only "+pkginfo.Name+"/<version>")
	versionCmd.Flags().BoolVarP(&printEngine, "engine", "e", false, "include the embedded DuckDB version")
}
