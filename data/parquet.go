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

package data

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

// WriteParquet saves records to fn, creating parent directories as needed
func WriteParquet[T any](fn string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(fn), 0o755); err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("could not create parquet directory")
		return err
	}

	fh, err := local.NewLocalFileWriter(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("cannot create local file")
		return err
	}
	defer fh.Close()

	pw, err := writer.NewParquetWriter(fh, new(T), 4)
	if err != nil {
		log.Error().Err(err).Msg("Parquet write failed")
		return err
	}

	pw.RowGroupSize = 128 * 1024 * 1024 // 128M
	pw.PageSize = 8 * 1024              // 8k
	pw.CompressionType = parquet.CompressionCodec_ZSTD

	for _, rec := range records {
		if err = pw.Write(rec); err != nil {
			log.Error().Err(err).Str("FileName", fn).Msg("Parquet write failed for record")
			return err
		}
	}

	if err = pw.WriteStop(); err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("Parquet write finished")
		return err
	}

	log.Debug().Int("NumRecords", len(records)).Str("FileName", fn).Msg("parquet saved to disk")
	return nil
}

// ReadParquet loads every row of fn. A missing file is reported with an error
// satisfying errors.Is(err, fs.ErrNotExist).
func ReadParquet[T any](fn string) ([]T, error) {
	if _, err := os.Stat(fn); err != nil {
		return nil, err
	}

	fr, err := local.NewLocalFileReader(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("cannot open parquet file")
		return nil, err
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(T), 4)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("cannot read parquet schema")
		return nil, err
	}
	defer pr.ReadStop()

	rows := make([]T, int(pr.GetNumRows()))
	if len(rows) == 0 {
		return rows, nil
	}

	if err := pr.Read(&rows); err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("cannot read parquet rows")
		return nil, err
	}

	return rows, nil
}
