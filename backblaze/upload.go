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

// Package backblaze copies exported files to a B2 bucket
package backblaze

import (
	"errors"
	"os"
	"path"
	"path/filepath"

	"github.com/kothar/go-backblaze"
	"github.com/penny-vault/pvelt/config"
	"github.com/rs/zerolog/log"
)

var ErrBucketNotFound = errors.New("bucket not found")

// ObjectName is the bucket key of fn under dirname
func ObjectName(dirname, fn string) string {
	return path.Join(dirname, filepath.Base(fn))
}

// UploadFiles sends every file to conf.Bucket under dirname
func UploadFiles(conf config.BackblazeConfig, dirname string, files []string) error {
	b2, err := backblaze.NewB2(backblaze.Credentials{
		KeyID:          conf.ApplicationID,
		ApplicationKey: conf.ApplicationKey,
	})
	if err != nil {
		log.Error().Err(err).Str("BucketName", conf.Bucket).Msg("authorize backblaze failed")
		return err
	}

	bucket, err := b2.Bucket(conf.Bucket)
	if err != nil {
		log.Error().Err(err).Str("BucketName", conf.Bucket).Msg("lookup bucket failed")
		return err
	}

	if bucket == nil {
		log.Error().Str("BucketName", conf.Bucket).Msg("bucket does not exist")
		return ErrBucketNotFound
	}

	for _, fn := range files {
		if err := upload(bucket, fn, ObjectName(dirname, fn)); err != nil {
			return err
		}
	}

	return nil
}

func upload(bucket *backblaze.Bucket, fn, outName string) error {
	reader, err := os.Open(fn)
	if err != nil {
		return err
	}
	defer reader.Close()

	file, err := bucket.UploadFile(outName, map[string]string{}, reader)
	if err != nil {
		log.Error().Err(err).Str("FileName", outName).Str("BucketName", bucket.Name).Msg("save file to backblaze failed")
		return err
	}

	log.Info().Str("FileName", file.Name).Int64("Size", file.ContentLength).Str("ID", file.ID).Msg("uploaded file to backblaze")
	return nil
}
