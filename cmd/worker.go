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
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/greenfolio/gf-api/common"
	"github.com/greenfolio/gf-api/data"
	"github.com/greenfolio/gf-api/database"
	"github.com/greenfolio/gf-api/handler"
	"github.com/greenfolio/gf-api/messenger"
	"github.com/greenfolio/gf-api/portfolio"
	"github.com/greenfolio/gf-api/recommend"
	"github.com/greenfolio/gf-api/runlog"
	"github.com/greenfolio/gf-api/sentiment"
	"github.com/greenfolio/gf-api/universe"
)

var workerLimit int

func init() {
	workerCmd.Flags().IntVar(&workerLimit, "limit", 0, "Maximum queued requests to process (0 processes until the queue is empty)")
	rootCmd.AddCommand(workerCmd)
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Drain queued recommendation requests",
	Long: `Fetch queued recommendation requests from the NATS requests subject, run
each one, save the result to the run log, and publish completion events.
The command exits once the queue is empty.`,
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		common.SetupCache()

		ctx := context.Background()

		if err := messenger.Initialize(); err != nil {
			log.Fatal().Err(err).Msg("could not initialize messenger")
		}
		if !messenger.Enabled() {
			log.Fatal().Msg("worker requires nats.url to be configured")
		}
		defer messenger.Close()

		hasDatabase := viper.GetString("database.url") != ""
		if hasDatabase {
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

		var runs handler.RunRepository
		if hasDatabase {
			runs = runlog.NewRepository()
		}

		processed := 0
		for {
			if workerLimit > 0 && processed >= workerLimit {
				log.Info().Int("NumProcessed", processed).Msg("reached request limit")
				break
			}

			req, msg, err := messenger.NextRecommendRequest()
			if err != nil {
				log.Error().Err(err).Msg("could not fetch queued request")
				break
			}
			if req == nil {
				log.Info().Int("NumProcessed", processed).Msg("request queue is empty")
				break
			}

			subLog := log.With().Str("Query", req.Query).Logger()
			subLog.Info().Msg("processing queued recommendation request")

			prefs := recommend.ParseQuery(req.Query)
			engine := recommend.NewEngine(u.Subset(req.Tickers...), labels, manager)
			recommendations, stats := engine.Classify(ctx, prefs)

			var weights map[string]float64
			var fitness float64
			suitable := recommend.Suitable(recommendations)
			if len(suitable) > 0 {
				returns := make(map[string]float64, len(suitable))
				risks := make(map[string]float64, len(suitable))
				scores := make(map[string]float64, len(suitable))
				for _, rec := range suitable {
					returns[rec.Ticker] = stats.Returns[rec.Ticker]
					risks[rec.Ticker] = stats.Volatility[rec.Ticker]
					scores[rec.Ticker] = sentiment.Score(rec.Sentiment)
				}

				if weights, fitness, err = portfolio.Optimize(nil, returns, risks, scores, portfolio.DefaultOptions()); err != nil {
					subLog.Warn().Stack().Err(err).Msg("could not optimize allocation")
				}
			}

			runID := saveQueuedRun(ctx, runs, req, prefs, recommendations, weights, fitness)

			counts := recommend.TierCounts(recommendations)
			if err := messenger.PublishRecommendCompleted(&messenger.RecommendCompleted{
				RunID:   runID,
				Green:   counts[recommend.TierGreen],
				Yellow:  counts[recommend.TierYellow],
				Red:     counts[recommend.TierRed],
				Fitness: fitness,
			}); err != nil {
				subLog.Warn().Err(err).Msg("could not publish recommendation event")
			}

			if err := msg.Ack(); err != nil {
				subLog.Error().Err(err).Msg("could not ack queued request")
			}
			processed++
		}
	},
}

func saveQueuedRun(ctx context.Context, runs handler.RunRepository, req *messenger.RecommendRequested, prefs *recommend.Preferences, recommendations []*recommend.Recommendation, weights map[string]float64, fitness float64) string {
	if runs == nil {
		return ""
	}

	payload, err := json.Marshal(map[string]interface{}{
		"recommendations": recommendations,
		"weights":         weights,
	})
	if err != nil {
		log.Warn().Err(err).Msg("could not marshal run payload")
		return ""
	}

	tickers := make([]string, 0, len(recommendations))
	if !recommend.IsSentinel(recommendations) {
		for _, rec := range recommendations {
			tickers = append(tickers, rec.Ticker)
		}
	}

	row := &runlog.Row{
		Query:    strings.TrimSpace(req.Query),
		ESGPref:  string(prefs.ESG),
		RiskPref: string(prefs.Risk),
		Industry: prefs.Industry,
		Tickers:  tickers,
		Fitness:  fitness,
		Payload:  payload,
	}
	if err := runs.Save(ctx, row); err != nil {
		log.Warn().Stack().Err(err).Msg("could not save recommendation run")
		return ""
	}

	return row.ID.String()
}
