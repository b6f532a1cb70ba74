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
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/greenfolio/gf-api/common"
	"github.com/greenfolio/gf-api/data"
	"github.com/greenfolio/gf-api/database"
	"github.com/greenfolio/gf-api/messenger"
	"github.com/greenfolio/gf-api/portfolio"
	"github.com/greenfolio/gf-api/recommend"
	"github.com/greenfolio/gf-api/report"
	"github.com/greenfolio/gf-api/sentiment"
	"github.com/greenfolio/gf-api/universe"
)

var recommendTickers []string
var recommendAllocate bool
var recommendJSON bool
var recommendQueue bool

func init() {
	recommendCmd.Flags().StringSliceVar(&recommendTickers, "tickers", nil, "Restrict candidates to these tickers")
	recommendCmd.Flags().BoolVar(&recommendAllocate, "allocate", true, "Evolve a portfolio allocation over the suitable picks")
	recommendCmd.Flags().BoolVar(&recommendJSON, "json", false, "Print the raw result as JSON instead of the report")
	recommendCmd.Flags().BoolVar(&recommendQueue, "queue", false, "Queue the request for the worker instead of running it now")
	rootCmd.AddCommand(recommendCmd)
}

var recommendCmd = &cobra.Command{
	Use:   "recommend [flags] query",
	Short: "Recommend ESG investments for a plain language query",
	Long: `Classify the ESG universe against the preferences parsed from a plain
language query, evolve an allocation over the suitable picks, and print
the recommendation report.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		common.SetupCache()

		ctx := context.Background()
		query := strings.Join(args, " ")

		if recommendQueue {
			if err := messenger.Initialize(); err != nil {
				log.Fatal().Err(err).Msg("could not initialize messenger")
			}
			defer messenger.Close()

			if err := messenger.QueueRecommendRequest(query, recommendTickers); err != nil {
				log.Fatal().Err(err).Msg("could not queue recommendation request")
			}
			fmt.Println("queued recommendation request")
			return
		}

		if viper.GetString("database.url") != "" {
			if err := database.Connect(ctx); err != nil {
				log.Fatal().Err(err).Msg("database connection failed")
			}
		}

		manager := data.NewDefaultManager()

		u, err := universe.Load(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load esg universe")
		}
		labels := sentiment.NewClient().Labels(ctx, u.Tickers())

		prefs := recommend.ParseQuery(query)

		engine := recommend.NewEngine(u.Subset(recommendTickers...), labels, manager)
		recommendations, stats := engine.Classify(ctx, prefs)

		summary := &report.Summary{
			Query:           query,
			Preferences:     prefs,
			Recommendations: recommendations,
			Thresholds:      stats.Thresholds,
		}

		suitable := recommend.Suitable(recommendations)
		if recommendAllocate && len(suitable) > 0 {
			returns := make(map[string]float64, len(suitable))
			risks := make(map[string]float64, len(suitable))
			scores := make(map[string]float64, len(suitable))
			for _, rec := range suitable {
				returns[rec.Ticker] = stats.Returns[rec.Ticker]
				risks[rec.Ticker] = stats.Volatility[rec.Ticker]
				scores[rec.Ticker] = sentiment.Score(rec.Sentiment)
			}

			weights, fitness, err := portfolio.Optimize(nil, returns, risks, scores, portfolio.DefaultOptions())
			if err != nil {
				log.Warn().Stack().Err(err).Msg("could not optimize allocation")
			} else {
				summary.Weights = weights
				summary.Fitness = fitness

				performance, err := portfolio.HoldingPeriod(weights, stats.Prices)
				if err != nil {
					log.Warn().Err(err).Msg("could not compute holding period performance")
				} else {
					summary.Performance = performance
				}
			}
		}

		if recommendJSON {
			out, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				log.Fatal().Err(err).Msg("could not marshal result")
			}
			fmt.Println(string(out))
			return
		}

		fmt.Println(report.Narrative(summary))
	},
}
