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
	"os"
	"path/filepath"
	"time"

	"github.com/penny-vault/pvelt/config"
	"github.com/penny-vault/pvelt/data"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	asOfStr string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pvelt",
	Short: "pvelt builds a B3 market analytics store from daily extracts",
	Long: `pvelt is a command line utility that extracts daily quote lists, fundamental
screener tables and user trade sheets for stocks listed on B3 and refines them
through three layers kept in a single DuckDB file:

	* bronze: typed, source-faithful copies of each extract
	* silver: conformed tables with harmonized tickers and types
	* gold: a star schema of calendar, security, user and trade-type dimensions
	  with indicator, opportunity and trade facts

Each layer is loaded incrementally; re-running a day never duplicates rows.
The gold tables can be exported as parquet, copied to Backblaze B2 and
published to PostgreSQL.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pvelt.toml)")

	rootCmd.PersistentFlags().String("log-level", "info", "logging level (debug, info, warn, error)")
	if err := viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for log-level failed")
	}

	rootCmd.PersistentFlags().String("database", "", "path of the analytical store")
	if err := viper.BindPFlag("database_path", rootCmd.PersistentFlags().Lookup("database")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for database failed")
	}

	rootCmd.PersistentFlags().String("landing", "", "directory holding the raw extracts")
	if err := viper.BindPFlag("landing_path", rootCmd.PersistentFlags().Lookup("landing")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for landing failed")
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	home, err := os.UserHomeDir()
	cobra.CheckErr(err)

	config.SetDefaults(viper.GetViper(), filepath.Join(home, ".pvelt"))

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Search config in home directory with name ".pvelt" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("toml")
		viper.SetConfigName(".pvelt")
	}

	config.BindEnv(viper.GetViper())

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Info().Str("ConfigFN", viper.ConfigFileUsed()).Msg("Using config file")
	}

	if err := config.ConfigureLogging(viper.GetString("log_level")); err != nil {
		log.Warn().Err(err).Msg("falling back to info logging")
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// mustLoadConfig returns the validated configuration or exits
func mustLoadConfig() *config.Config {
	conf, err := config.Load(viper.GetViper())
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	return conf
}

// processingDate parses the --date flag; an empty value means today
func processingDate() time.Time {
	if asOfStr == "" {
		return data.Day(time.Now())
	}

	asOf, err := time.Parse(data.DateLayout, asOfStr)
	if err != nil {
		log.Fatal().Err(err).Str("Date", asOfStr).Msg("--date must be formatted as YYYY-MM-DD")
	}

	return asOf
}

func addDateFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&asOfStr, "date", "", "processing date as YYYY-MM-DD (default today)")
}
