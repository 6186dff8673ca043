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
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var dateLayouts = []string{DateLayout, "02/01/2006", "2006/01/02"}

// IsBlank reports whether the text is one of the placeholders the sources use
// for "no value"
func IsBlank(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "-", "n/a", "nan":
		return true
	}
	return false
}

// ParseDecimal converts pt-BR formatted text ("1.234,56", "-0,5", "12,34%") to
// a float. Blank placeholders return nil without error. A trailing percent sign
// yields a fraction.
func ParseDecimal(s string) (*float64, error) {
	raw := s
	s = strings.TrimSpace(s)
	if IsBlank(s) {
		return nil, nil
	}

	percent := strings.HasSuffix(s, "%")
	if percent {
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}

	if !isLocaleNumber(s) {
		return nil, fmt.Errorf("%w: %q", ErrMalformedNumber, raw)
	}

	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	val, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
		return nil, fmt.Errorf("%w: %q", ErrMalformedNumber, raw)
	}

	if percent {
		val /= 100
	}

	return &val, nil
}

// isLocaleNumber accepts an optional sign followed by digits, thousands dots
// and a decimal comma. Exponents, hex forms and words such as "Inf" are not
// pt-BR text.
func isLocaleNumber(s string) bool {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")

	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' || r == ',':
		default:
			return false
		}
	}

	return digits > 0 && strings.Count(s, ",") <= 1
}

// ParsePercent is ParseDecimal for columns that are always published as a
// percentage, whether or not the sign is present
func ParsePercent(s string) (*float64, error) {
	trimmed := strings.TrimSpace(s)
	if strings.HasSuffix(trimmed, "%") {
		return ParseDecimal(trimmed)
	}

	val, err := ParseDecimal(trimmed)
	if err != nil || val == nil {
		return val, err
	}

	frac := *val / 100
	return &frac, nil
}

// ParseInteger accepts whole numbers written with pt-BR thousands separators
func ParseInteger(s string) (*int64, error) {
	val, err := ParseDecimal(s)
	if err != nil || val == nil {
		return nil, err
	}

	if *val != math.Trunc(*val) || strings.HasSuffix(strings.TrimSpace(s), "%") {
		return nil, fmt.Errorf("%w: %q is not a whole number", ErrMalformedNumber, s)
	}

	if *val < math.MinInt64 || *val >= -math.MinInt64 {
		return nil, fmt.Errorf("%w: %q is out of range", ErrMalformedNumber, s)
	}

	n := int64(*val)
	return &n, nil
}

// ParseDate reads ISO dates and the dd/mm/yyyy form used in the trade sheets
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if dt, err := time.Parse(layout, s); err == nil {
			return dt, nil
		}
	}

	// timestamps such as 2024-03-15T00:00:00Z
	if dt, err := time.Parse(time.RFC3339, s); err == nil {
		return Day(dt), nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
}

// Day truncates t to midnight UTC of its calendar day
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// StringPtr returns nil for blank placeholders and the trimmed text otherwise
func StringPtr(s string) *string {
	if IsBlank(s) {
		return nil
	}
	trimmed := strings.TrimSpace(s)
	return &trimmed
}
