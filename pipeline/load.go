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

package pipeline

import (
	"context"
	"path/filepath"

	"github.com/penny-vault/pvelt/data"
	"github.com/penny-vault/pvelt/store"
	"github.com/rs/zerolog/log"
)

// Export writes every table of layer to dir as <table>.parquet and returns
// the files written
func Export(ctx context.Context, s *store.Store, layer, dir string) ([]string, error) {
	files := make([]string, 0, len(data.Tables[layer]))

	for _, table := range data.Tables[layer] {
		ok, err := s.TableExists(ctx, layer, table)
		if err != nil {
			return files, data.NewLayerError(layer, table, err)
		}
		if !ok {
			log.Warn().Str("Table", data.Qualified(layer, table)).Msg("table does not exist, skipping export")
			continue
		}

		fn := filepath.Join(dir, table+".parquet")
		if err := s.ExportParquet(ctx, layer, table, fn); err != nil {
			return files, data.NewLayerError(layer, table, err)
		}

		files = append(files, fn)
	}

	log.Info().Str("Layer", layer).Str("Directory", dir).Int("NumFiles", len(files)).Msg("layer exported")
	return files, nil
}

// Directories maps each layer to its export directory
type Directories map[string]string

// ExportAll exports bronze, silver and gold to their directories. The gold
// files are returned for upload.
func ExportAll(ctx context.Context, s *store.Store, dirs Directories) ([]string, error) {
	var goldFiles []string

	for _, layer := range []string{data.LayerBronze, data.LayerSilver, data.LayerGold} {
		dir, ok := dirs[layer]
		if !ok || dir == "" {
			continue
		}

		files, err := Export(ctx, s, layer, dir)
		if err != nil {
			return goldFiles, err
		}

		if layer == data.LayerGold {
			goldFiles = files
		}
	}

	return goldFiles, nil
}
