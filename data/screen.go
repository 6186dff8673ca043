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

import "github.com/rs/zerolog"

// Screen holds the thresholds a quote must pass to be listed as an opportunity.
// Every comparison is strict.
type Screen struct {
	MinLiquidity     float64
	MinPrice         float64
	MinEVEBIT        float64
	MaxPVP           float64
	MinROIC          float64
	MinPL            float64
	MinRevenueGrowth float64
}

// DefaultScreen is applied when no thresholds are configured
var DefaultScreen = Screen{
	MinLiquidity:     100000,
	MinPrice:         0,
	MinEVEBIT:        0,
	MaxPVP:           1,
	MinROIC:          0.10,
	MinPL:            0,
	MinRevenueGrowth: 0,
}

func (s Screen) MarshalZerologObject(e *zerolog.Event) {
	e.Float64("MinLiquidity", s.MinLiquidity).
		Float64("MinPrice", s.MinPrice).
		Float64("MinEVEBIT", s.MinEVEBIT).
		Float64("MaxPVP", s.MaxPVP).
		Float64("MinROIC", s.MinROIC).
		Float64("MinPL", s.MinPL).
		Float64("MinRevenueGrowth", s.MinRevenueGrowth)
}
