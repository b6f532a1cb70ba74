// Copyright 2021-2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configOut string
var configForce bool

func init() {
	configInitCmd.Flags().StringVarP(&configOut, "out", "o", "config.toml", "Where to write the configuration file")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage gfapi configuration",
}

type serverSection struct {
	Port        int    `toml:"port"`
	CorsOrigins string `toml:"cors_origins"`
}

type databaseSection struct {
	URL string `toml:"url"`
}

type pricesSection struct {
	CacheDir        string   `toml:"cache_dir"`
	Sources         []string `toml:"sources"`
	LookbackDays    int      `toml:"lookback_days"`
	MinRows         int      `toml:"min_rows"`
	Mode            string   `toml:"mode"`
	MaxParallel     int      `toml:"max_parallel"`
	Timeout         string   `toml:"timeout"`
	ForwardFill     bool     `toml:"forward_fill"`
	UseDb           bool     `toml:"use_db"`
	RefreshSchedule string   `toml:"refresh_schedule"`
}

type esgSection struct {
	File     string `toml:"file"`
	Table    string `toml:"table"`
	ReloadAt string `toml:"reload_at"`
}

type sentimentSection struct {
	Disabled bool   `toml:"disabled"`
	FeedURL  string `toml:"feed_url"`
}

type allocatorSection struct {
	Population    int     `toml:"population"`
	Generations   int     `toml:"generations"`
	EliteFraction float64 `toml:"elite_fraction"`
	MutationRate  float64 `toml:"mutation_rate"`
}

type logSection struct {
	Level        string `toml:"level"`
	Output       string `toml:"output"`
	Pretty       bool   `toml:"pretty"`
	ReportCaller bool   `toml:"report_caller"`
	LokiURL      string `toml:"loki_url"`
}

type natsSection struct {
	URL              string `toml:"url"`
	SubjectPrefix    string `toml:"subject_prefix"`
	Credentials      string `toml:"credentials"`
	RequestsSubject  string `toml:"requests_subject"`
	RequestsConsumer string `toml:"requests_consumer"`
}

type cacheSection struct {
	LocalSize int    `toml:"local_size"`
	TTL       int    `toml:"ttl"`
	Redis     bool   `toml:"redis"`
	RedisURL  string `toml:"redis_url"`
}

type authSection struct {
	Disabled bool   `toml:"disabled"`
	JwksURL  string `toml:"jwks_url"`
}

type otlpSection struct {
	Endpoint string            `toml:"endpoint"`
	HTTP     bool              `toml:"http"`
	Headers  map[string]string `toml:"headers"`
}

type runlogSection struct {
	Table string `toml:"table"`
}

type configDocument struct {
	SecretKey string           `toml:"secret_key"`
	Server    serverSection    `toml:"server"`
	Database  databaseSection  `toml:"database"`
	Prices    pricesSection    `toml:"prices"`
	ESG       esgSection       `toml:"esg"`
	Sentiment sentimentSection `toml:"sentiment"`
	Allocator allocatorSection `toml:"allocator"`
	Log       logSection       `toml:"log"`
	NATS      natsSection      `toml:"nats"`
	Cache     cacheSection     `toml:"cache"`
	Auth      authSection      `toml:"auth"`
	OTLP      otlpSection      `toml:"otlp"`
	RunLog    runlogSection    `toml:"runlog"`
}

// defaultConfig mirrors the fallback values the packages apply when a key
// is unset.
func defaultConfig() *configDocument {
	return &configDocument{
		Server: serverSection{
			Port:        3000,
			CorsOrigins: "http://localhost:8080",
		},
		Prices: pricesSection{
			CacheDir:        "/var/lib/greenfolio/prices",
			Sources:         []string{"yahoo", "stooq"},
			LookbackDays:    252,
			MinRows:         120,
			Mode:            "live-first",
			MaxParallel:     4,
			Timeout:         "10s",
			RefreshSchedule: "@close 30",
		},
		ESG: esgSection{
			File:     "esg_scores.csv",
			Table:    "esg_scores",
			ReloadAt: "05:00",
		},
		Allocator: allocatorSection{
			Population:    50,
			Generations:   100,
			EliteFraction: 0.2,
			MutationRate:  0.1,
		},
		Log: logSection{
			Level:  "warning",
			Output: "stdout",
		},
		Cache: cacheSection{
			LocalSize: 1000,
			TTL:       300,
		},
		RunLog: runlogSection{
			Table: "recommendation_runs",
		},
	}
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Long: `Write a configuration file populated with the default settings. Edit the
result and place it in /etc/greenfolio or $HOME/.config/greenfolio.`,
	Run: func(cmd *cobra.Command, args []string) {
		if !configForce {
			if _, err := os.Stat(configOut); err == nil {
				log.Fatal().Str("FileName", configOut).Msg("file already exists; use --force to overwrite")
			}
		}

		doc, err := toml.Marshal(defaultConfig())
		if err != nil {
			log.Fatal().Err(err).Msg("could not marshal configuration")
		}

		// configuration may hold credentials so keep it private
		if err := os.WriteFile(configOut, doc, 0600); err != nil {
			log.Fatal().Err(err).Str("FileName", configOut).Msg("could not write configuration")
		}

		fmt.Printf("wrote %s\n", configOut)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Run: func(cmd *cobra.Command, args []string) {
		doc, err := toml.Marshal(viper.AllSettings())
		if err != nil {
			log.Fatal().Err(err).Msg("could not marshal configuration")
		}
		fmt.Println(string(doc))
	},
}
