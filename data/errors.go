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
	"errors"
	"fmt"
)

var (
	// ErrMissingSource is returned when a layer runs before the layer it reads from
	ErrMissingSource = errors.New("required source table does not exist")

	ErrMalformedNumber = errors.New("malformed number")
	ErrMalformedDate   = errors.New("malformed date")
)

// LayerError ties a failure to the layer and table that was being built
type LayerError struct {
	Layer string
	Table string
	Err   error
}

func NewLayerError(layer, table string, err error) error {
	if err == nil {
		return nil
	}
	return &LayerError{Layer: layer, Table: table, Err: err}
}

func (e *LayerError) Error() string {
	return fmt.Sprintf("%s.%s: %v", e.Layer, e.Table, e.Err)
}

func (e *LayerError) Unwrap() error {
	return e.Err
}
