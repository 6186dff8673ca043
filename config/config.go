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

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/penny-vault/pvelt/data"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const EnvPrefix = "PVELT"

var ErrMissingConfig = errors.New("missing required configuration")

type Config struct {
	LandingPath      string `mapstructure:"landing_path" toml:"landing_path"`
	BronzePath       string `mapstructure:"bronze_path" toml:"bronze_path"`
	SilverPath       string `mapstructure:"silver_path" toml:"silver_path"`
	GoldPath         string `mapstructure:"gold_path" toml:"gold_path"`
	DatabasePath     string `mapstructure:"database_path" toml:"database_path"`
	TradesSourcePath string `mapstructure:"trades_source_path" toml:"trades_source_path"`
	LogLevel         string `mapstructure:"log_level" toml:"log_level"`
	Schedule         string `mapstructure:"schedule" toml:"schedule"`

	Fundamentus  FundamentusConfig  `mapstructure:"fundamentus" toml:"fundamentus"`
	Brapi        BrapiConfig        `mapstructure:"brapi" toml:"brapi"`
	Warehouse    WarehouseConfig    `mapstructure:"warehouse" toml:"warehouse"`
	Backblaze    BackblazeConfig    `mapstructure:"backblaze" toml:"backblaze"`
	Healthchecks HealthchecksConfig `mapstructure:"healthchecks" toml:"healthchecks"`
	Screen       ScreenConfig       `mapstructure:"screen" toml:"screen"`
}

type FundamentusConfig struct {
	URL string `mapstructure:"url" toml:"url"`
}

type BrapiConfig struct {
	URL               string  `mapstructure:"url" toml:"url"`
	Token             string  `mapstructure:"token" toml:"token"`
	PageSize          int     `mapstructure:"page_size" toml:"page_size"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" toml:"requests_per_second"`
}

type WarehouseConfig struct {
	URL string `mapstructure:"url" toml:"url"`
}

type BackblazeConfig struct {
	ApplicationID  string `mapstructure:"application_id" toml:"application_id"`
	ApplicationKey string `mapstructure:"application_key" toml:"application_key"`
	Bucket         string `mapstructure:"bucket" toml:"bucket"`
}

func (b BackblazeConfig) Enabled() bool {
	return b.Bucket != ""
}

type HealthchecksConfig struct {
	PingURL string `mapstructure:"ping_url" toml:"ping_url"`
}

type ScreenConfig struct {
	MinLiquidity     float64 `mapstructure:"min_liquidity" toml:"min_liquidity"`
	MinPrice         float64 `mapstructure:"min_price" toml:"min_price"`
	MinEVEBIT        float64 `mapstructure:"min_ev_ebit" toml:"min_ev_ebit"`
	MaxPVP           float64 `mapstructure:"max_p_vp" toml:"max_p_vp"`
	MinROIC          float64 `mapstructure:"min_roic" toml:"min_roic"`
	MinPL            float64 `mapstructure:"min_p_l" toml:"min_p_l"`
	MinRevenueGrowth float64 `mapstructure:"min_revenue_growth" toml:"min_revenue_growth"`
}

func (s ScreenConfig) Screen() data.Screen {
	return data.Screen{
		MinLiquidity:     s.MinLiquidity,
		MinPrice:         s.MinPrice,
		MinEVEBIT:        s.MinEVEBIT,
		MaxPVP:           s.MaxPVP,
		MinROIC:          s.MinROIC,
		MinPL:            s.MinPL,
		MinRevenueGrowth: s.MinRevenueGrowth,
	}
}

// SetDefaults registers the default value of every key on v. Paths default to
// directories under base.
func SetDefaults(v *viper.Viper, base string) {
	v.SetDefault("landing_path", filepath.Join(base, "landing"))
	v.SetDefault("bronze_path", filepath.Join(base, "bronze"))
	v.SetDefault("silver_path", filepath.Join(base, "silver"))
	v.SetDefault("gold_path", filepath.Join(base, "gold"))
	v.SetDefault("database_path", filepath.Join(base, "pvelt.duckdb"))
	v.SetDefault("trades_source_path", filepath.Join(base, "sheets"))
	v.SetDefault("log_level", "info")
	v.SetDefault("schedule", "0 19 * * 1-5")

	v.SetDefault("fundamentus.url", "https://www.fundamentus.com.br/resultado.php")
	v.SetDefault("brapi.url", "https://brapi.dev/api/quote/list")
	v.SetDefault("brapi.page_size", 100)
	v.SetDefault("brapi.requests_per_second", 2.0)

	// empty defaults make the keys visible to AutomaticEnv during Unmarshal
	v.SetDefault("brapi.token", "")
	v.SetDefault("warehouse.url", "")
	v.SetDefault("backblaze.application_id", "")
	v.SetDefault("backblaze.application_key", "")
	v.SetDefault("backblaze.bucket", "")
	v.SetDefault("healthchecks.ping_url", "")

	v.SetDefault("screen.min_liquidity", data.DefaultScreen.MinLiquidity)
	v.SetDefault("screen.min_price", data.DefaultScreen.MinPrice)
	v.SetDefault("screen.min_ev_ebit", data.DefaultScreen.MinEVEBIT)
	v.SetDefault("screen.max_p_vp", data.DefaultScreen.MaxPVP)
	v.SetDefault("screen.min_roic", data.DefaultScreen.MinROIC)
	v.SetDefault("screen.min_p_l", data.DefaultScreen.MinPL)
	v.SetDefault("screen.min_revenue_growth", data.DefaultScreen.MinRevenueGrowth)
}

// BindEnv lets PVELT_BRAPI_TOKEN and friends override file values
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes the settings held by v and validates the keys every command needs
func Load(v *viper.Viper) (*Config, error) {
	conf := &Config{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return conf, nil
}

func missing(key string) error {
	return fmt.Errorf("%w: %s", ErrMissingConfig, key)
}

// Validate reports every missing path setting at once
func (c *Config) Validate() error {
	var errs []error

	required := []struct {
		key string
		val string
	}{
		{"landing_path", c.LandingPath},
		{"bronze_path", c.BronzePath},
		{"silver_path", c.SilverPath},
		{"gold_path", c.GoldPath},
		{"database_path", c.DatabasePath},
		{"trades_source_path", c.TradesSourcePath},
	}

	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			errs = append(errs, missing(r.key))
		}
	}

	return errors.Join(errs...)
}

// ValidateExtract checks the settings needed to pull the external sources
func (c *Config) ValidateExtract() error {
	var errs []error

	if c.Brapi.URL == "" {
		errs = append(errs, missing("brapi.url"))
	}

	if c.Fundamentus.URL == "" {
		errs = append(errs, missing("fundamentus.url"))
	}

	if c.Brapi.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: brapi.page_size must be positive", ErrMissingConfig))
	}

	return errors.Join(errs...)
}

// ValidateBackblaze checks credentials when uploads are enabled
func (c *Config) ValidateBackblaze() error {
	if !c.Backblaze.Enabled() {
		return nil
	}

	var errs []error
	if c.Backblaze.ApplicationID == "" {
		errs = append(errs, missing("backblaze.application_id"))
	}
	if c.Backblaze.ApplicationKey == "" {
		errs = append(errs, missing("backblaze.application_key"))
	}
	return errors.Join(errs...)
}

// ConfigureLogging sets the global zerolog level from the log_level key
func ConfigureLogging(level string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log_level %q: %w", level, err)
	}

	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(lvl)
	return nil
}

// Write saves conf as TOML to fn with owner-only permissions
func Write(fn string, conf *Config) error {
	contents, err := toml.Marshal(conf)
	if err != nil {
		log.Error().Err(err).Msg("could not marshal config to toml")
		return err
	}

	if err := os.WriteFile(fn, contents, 0o600); err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("could not write config file")
		return err
	}

	return nil
}
