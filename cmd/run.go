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
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hako/durafmt"
	"github.com/penny-vault/pvelt/backblaze"
	"github.com/penny-vault/pvelt/config"
	"github.com/penny-vault/pvelt/data"
	"github.com/penny-vault/pvelt/extract"
	"github.com/penny-vault/pvelt/healthcheck"
	"github.com/penny-vault/pvelt/pipeline"
	"github.com/penny-vault/pvelt/store"
	"github.com/penny-vault/pvelt/warehouse"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	skipExtract bool
	daemon      bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract, transform and load one processing date",
	Long: `The run sub-command extracts the raw sources for the processing date, builds the
bronze, silver and gold layers and exports them as parquet. When --daemon is
given (or --schedule is set) run stays in the foreground and executes the
pipeline on the cron schedule; a run that is still in progress when the next
one is due causes that one to be skipped.`,
	Run: func(cmd *cobra.Command, args []string) {
		conf := mustLoadConfig()

		if daemon || cmd.Flags().Changed("schedule") {
			if err := runDaemon(conf); err != nil {
				log.Fatal().Err(err).Msg("daemon stopped")
			}
			return
		}

		if err := runOnce(context.Background(), conf, processingDate(), skipExtract); err != nil {
			log.Fatal().Err(err).Msg("run failed")
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addDateFlag(runCmd)

	runCmd.Flags().BoolVar(&skipExtract, "skip-extract", false, "use the extracts already in the landing zone")
	runCmd.Flags().BoolVar(&daemon, "daemon", false, "run on the configured schedule")
	runCmd.Flags().String("schedule", "", "cron schedule for daemon mode")
	if err := viper.BindPFlag("schedule", runCmd.Flags().Lookup("schedule")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for schedule failed")
	}
}

// runOnce executes extract, transform and load for asOf and reports the
// outcome to the health check
func runOnce(ctx context.Context, conf *config.Config, asOf time.Time, skipExtract bool) error {
	pinger := healthcheck.New(conf.Healthchecks.PingURL)
	if err := pinger.Ping(ctx, healthcheck.Start, asOf.Format(data.DateLayout)); err != nil {
		log.Warn().Err(err).Msg("health check start ping failed")
	}

	startTime := time.Now()
	err := runStages(ctx, conf, asOf, skipExtract)
	runTime := durafmt.Parse(time.Since(startTime)).LimitFirstN(2).String()

	if err != nil {
		if pingErr := pinger.Ping(ctx, healthcheck.Fail, err.Error()); pingErr != nil {
			log.Warn().Err(pingErr).Msg("health check fail ping failed")
		}
		return err
	}

	if pingErr := pinger.Ping(ctx, healthcheck.Success, fmt.Sprintf("finished in %s", runTime)); pingErr != nil {
		log.Warn().Err(pingErr).Msg("health check success ping failed")
	}

	log.Info().Time("AsOf", asOf).Str("Duration", runTime).Msg("run complete")
	return nil
}

func runStages(ctx context.Context, conf *config.Config, asOf time.Time, skipExtract bool) error {
	if !skipExtract {
		if err := conf.ValidateExtract(); err != nil {
			return err
		}

		// a failed source leaves its landing partition missing; bronze treats that as no new rows
		if err := extract.New(conf, asOf).Run(ctx); err != nil {
			log.Warn().Err(err).Msg("extract finished with errors")
		}
	}

	s, err := store.Open(ctx, conf.DatabasePath)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := pipeline.New(s, conf.LandingPath, conf.Screen.Screen(), asOf).Run(ctx); err != nil {
		return err
	}

	return load(ctx, conf, s, asOf)
}

// load exports the layers and pushes the gold files to the optional targets
func load(ctx context.Context, conf *config.Config, s *store.Store, asOf time.Time) error {
	goldFiles, err := pipeline.ExportAll(ctx, s, pipeline.Directories{
		data.LayerBronze: conf.BronzePath,
		data.LayerSilver: conf.SilverPath,
		data.LayerGold:   conf.GoldPath,
	})
	if err != nil {
		return err
	}

	var errs []error
	if conf.Backblaze.Enabled() {
		if err := conf.ValidateBackblaze(); err != nil {
			errs = append(errs, err)
		} else if err := backblaze.UploadFiles(conf.Backblaze, asOf.Format(data.DateLayout), goldFiles); err != nil {
			errs = append(errs, err)
		}
	}

	if conf.Warehouse.URL != "" {
		if _, err := warehouse.Publish(ctx, s, conf.Warehouse.URL); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func runDaemon(conf *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(&log.Logger))))
	_, err := scheduler.AddFunc(conf.Schedule, func() {
		if err := runOnce(ctx, conf, data.Day(time.Now()), false); err != nil {
			log.Error().Err(err).Msg("scheduled run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", conf.Schedule, err)
	}

	log.Info().Str("Schedule", conf.Schedule).Msg("starting daemon")
	scheduler.Start()

	<-ctx.Done()
	log.Info().Msg("waiting for running jobs to finish")
	<-scheduler.Stop().Done()

	return nil
}
