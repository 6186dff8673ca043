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

package store

import (
	"database/sql/driver"
	"strings"

	"github.com/penny-vault/pvelt/data"
)

// Column is a column definition used to generate matching DDL for a
// staging table and its persisted counterpart
type Column struct {
	Name string
	Type string
}

// ColumnNames returns the names of cols joined for a SELECT or INSERT list,
// each prefixed by alias when alias is not empty
func ColumnNames(cols []Column, alias string) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		if alias != "" {
			names[i] = alias + "." + c.Name
		} else {
			names[i] = c.Name
		}
	}
	return strings.Join(names, ", ")
}

// ColumnDefs renders cols as a column definition list
func ColumnDefs(cols []Column) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = c.Name + " " + c.Type
	}
	return strings.Join(defs, ", ")
}

// Text converts source text to an appender value; blank placeholders are NULL
func Text(s string) driver.Value {
	if data.IsBlank(s) {
		return nil
	}
	return strings.TrimSpace(s)
}

func TextPtr(s *string) driver.Value {
	if s == nil {
		return nil
	}
	return Text(*s)
}

func Float(p *float64) driver.Value {
	if p == nil {
		return nil
	}
	return *p
}

func Int(p *int64) driver.Value {
	if p == nil {
		return nil
	}
	return *p
}
