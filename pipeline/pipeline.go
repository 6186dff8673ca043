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

// Package pipeline runs the bronze, silver and gold layers in order against
// one analytical store and records each run.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/penny-vault/pvelt/bronze"
	"github.com/penny-vault/pvelt/data"
	"github.com/penny-vault/pvelt/gold"
	"github.com/penny-vault/pvelt/silver"
	"github.com/penny-vault/pvelt/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Layer is one stage of the medallion. Initialize must be safe to call on
// every run; Transform returns the rows it wrote per table.
type Layer interface {
	Name() string
	Initialize(ctx context.Context) error
	Transform(ctx context.Context) (data.TableCounts, error)
}

const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

type RunSummary struct {
	RunID     uuid.UUID
	AsOf      time.Time
	StartTime time.Time
	EndTime   time.Time
	Status    string
	Error     string
	Tables    data.TableCounts
}

func (rs *RunSummary) Duration() time.Duration {
	return rs.EndTime.Sub(rs.StartTime)
}

func (rs *RunSummary) MarshalZerologObject(e *zerolog.Event) {
	e.Str("RunID", rs.RunID.String()).
		Time("AsOf", rs.AsOf).
		Str("Status", rs.Status).
		Dur("Duration", rs.Duration()).
		Int64("NumRows", rs.Tables.Total())
	if rs.Error != "" {
		e.Str("Error", rs.Error)
	}
}

type Pipeline struct {
	store  *store.Store
	asOf   time.Time
	layers []Layer
}

// New builds the standard bronze -> silver -> gold pipeline for asOf
func New(s *store.Store, landingPath string, screen data.Screen, asOf time.Time) *Pipeline {
	return NewWithLayers(s, asOf,
		bronze.New(s, landingPath, asOf),
		silver.New(s),
		gold.New(s, screen),
	)
}

func NewWithLayers(s *store.Store, asOf time.Time, layers ...Layer) *Pipeline {
	return &Pipeline{
		store:  s,
		asOf:   data.Day(asOf),
		layers: layers,
	}
}

// Run executes every layer in order and stops at the first failure. The run
// is recorded in the history whether or not it succeeds.
func (p *Pipeline) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:     uuid.New(),
		AsOf:      p.asOf,
		StartTime: time.Now(),
		Status:    StatusRunning,
		Tables:    data.TableCounts{},
	}

	runLogger := log.With().Str("RunID", summary.RunID.String()).Logger()

	if err := ensureHistory(ctx, p.store); err != nil {
		return nil, err
	}

	err := p.runLayers(ctx, summary, runLogger)

	summary.EndTime = time.Now()
	summary.Status = StatusSuccess
	if err != nil {
		summary.Status = StatusFailed
		summary.Error = err.Error()
	}

	if recErr := recordRun(ctx, p.store, summary); recErr != nil {
		runLogger.Error().Err(recErr).Msg("could not record run history")
	}

	if err != nil {
		runLogger.Error().Err(err).Object("Summary", summary).Msg("pipeline failed")
		return summary, err
	}

	runLogger.Info().Object("Summary", summary).Msg("pipeline finished")
	return summary, nil
}

func (p *Pipeline) runLayers(ctx context.Context, summary *RunSummary, logger zerolog.Logger) error {
	for _, layer := range p.layers {
		layerLogger := logger.With().Str("Layer", layer.Name()).Logger()

		if err := layer.Initialize(ctx); err != nil {
			return err
		}

		counts, err := layer.Transform(ctx)
		summary.Tables.Merge(counts)
		if err != nil {
			return err
		}

		layerLogger.Info().Object("Tables", counts).Msgf("%s layer complete: %d rows written", layer.Name(), counts.Total())
	}

	return nil
}

// Initialize creates the schemas and tables of every layer without loading data
func (p *Pipeline) Initialize(ctx context.Context) error {
	if err := ensureHistory(ctx, p.store); err != nil {
		return err
	}

	for _, layer := range p.layers {
		if err := layer.Initialize(ctx); err != nil {
			return err
		}
	}

	return nil
}
