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

package handler

import (
	"context"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"github.com/greenfolio/gf-api/indicators"
	"github.com/greenfolio/gf-api/messenger"
	"github.com/greenfolio/gf-api/observability/opentelemetry"
	"github.com/greenfolio/gf-api/portfolio"
	"github.com/greenfolio/gf-api/recommend"
	"github.com/greenfolio/gf-api/report"
	"github.com/greenfolio/gf-api/runlog"
	"github.com/greenfolio/gf-api/sentiment"
)

// RecommendRequest is the POST /v1/recommend body. A free-text query is
// parsed for preferences; the structured fields bypass parsing. Tickers
// restricts the universe, allocate defaults to true, and params override
// the configured evolutionary search settings.
type RecommendRequest struct {
	Query    string            `json:"query"`
	ESG      string            `json:"esg"`
	Risk     string            `json:"risk"`
	Industry string            `json:"industry"`
	Tickers  []string          `json:"tickers"`
	Allocate *bool             `json:"allocate"`
	Params   *AllocationParams `json:"params"`
}

type AllocationParams struct {
	Population    int     `json:"population"`
	Generations   int     `json:"generations"`
	EliteFraction float64 `json:"eliteFraction"`
	MutationRate  float64 `json:"mutationRate"`
}

type RecommendResponse struct {
	RunID           string                      `json:"runId,omitempty"`
	Query           string                      `json:"query,omitempty"`
	Preferences     *recommend.Preferences      `json:"preferences"`
	Recommendations []*recommend.Recommendation `json:"recommendations"`
	Thresholds      recommend.Thresholds        `json:"thresholds"`
	Weights         map[string]float64          `json:"weights,omitempty"`
	Fitness         float64                     `json:"fitness"`
	Features        []*indicators.Features      `json:"features,omitempty"`
	Performance     *portfolio.Performance      `json:"performance,omitempty"`
	Report          string                      `json:"report"`
}

// runPayload is what gets compressed into the run log.
type runPayload struct {
	Recommendations []*recommend.Recommendation `json:"recommendations"`
	Weights         map[string]float64          `json:"weights,omitempty"`
}

func Recommend(c *fiber.Ctx) error {
	deps := getDeps()
	if deps == nil || deps.Universe == nil || deps.Manager == nil {
		log.Error().Msg("recommendation requested before services were initialized")
		return fiber.ErrServiceUnavailable
	}

	request := &RecommendRequest{}
	if err := c.BodyParser(request); err != nil {
		log.Warn().Err(err).Msg("could not parse recommend request body")
		return fiber.ErrBadRequest
	}

	prefs := preferencesFrom(request)
	subLog := log.With().
		Str("Endpoint", "Recommend").
		Str("ESGPref", string(prefs.ESG)).
		Str("RiskPref", string(prefs.Risk)).
		Str("Industry", prefs.Industry).
		Logger()

	ctx, span := otel.Tracer(opentelemetry.Name).Start(context.Background(), "handler.Recommend")
	defer span.End()
	span.SetAttributes(opentelemetry.SpanAttributesFromFiber(c)...)

	engine := recommend.NewEngine(deps.Universe.Subset(request.Tickers...), deps.Labels, deps.Manager)
	recommendations, stats := engine.Classify(ctx, prefs)

	response := &RecommendResponse{
		Query:           strings.TrimSpace(request.Query),
		Preferences:     prefs,
		Recommendations: recommendations,
		Thresholds:      stats.Thresholds,
	}

	suitable := recommend.Suitable(recommendations)
	if len(suitable) > 0 && (request.Allocate == nil || *request.Allocate) {
		returns := make(map[string]float64, len(suitable))
		risks := make(map[string]float64, len(suitable))
		scores := make(map[string]float64, len(suitable))
		for _, rec := range suitable {
			returns[rec.Ticker] = stats.Returns[rec.Ticker]
			risks[rec.Ticker] = stats.Volatility[rec.Ticker]
			scores[rec.Ticker] = sentiment.Score(rec.Sentiment)
		}

		weights, fitness, err := portfolio.Optimize(nil, returns, risks, scores, allocationOptions(request.Params))
		if err != nil {
			subLog.Warn().Stack().Err(err).Msg("could not optimize allocation")
		} else {
			response.Weights = weights
			response.Fitness = fitness

			performance, err := portfolio.HoldingPeriod(weights, stats.Prices)
			if err != nil {
				subLog.Warn().Err(err).Msg("could not compute holding period performance")
			} else {
				response.Performance = performance
			}
		}
	}

	if !recommend.IsSentinel(recommendations) {
		esgScores := make(map[string]float64, len(recommendations))
		sentimentScores := make(map[string]float64, len(recommendations))
		for _, rec := range recommendations {
			esgScores[rec.Ticker] = rec.ESGScore
			sentimentScores[rec.Ticker] = sentiment.Score(rec.Sentiment)
		}
		response.Features = indicators.Panel(stats.Prices, esgScores, sentimentScores)
	}

	response.Report = report.Narrative(&report.Summary{
		Query:           response.Query,
		Preferences:     prefs,
		Recommendations: recommendations,
		Thresholds:      stats.Thresholds,
		Weights:         response.Weights,
		Fitness:         response.Fitness,
		Performance:     response.Performance,
	})

	response.RunID = saveRun(ctx, deps.Runs, request, prefs, response)

	counts := recommend.TierCounts(recommendations)
	if err := messenger.PublishRecommendCompleted(&messenger.RecommendCompleted{
		RunID:   response.RunID,
		Green:   counts[recommend.TierGreen],
		Yellow:  counts[recommend.TierYellow],
		Red:     counts[recommend.TierRed],
		Fitness: response.Fitness,
	}); err != nil {
		subLog.Warn().Err(err).Msg("could not publish recommendation event")
	}

	return c.JSON(response)
}

// saveRun records the run best-effort: a failed save is logged and the
// response still goes out, just without a run ID.
func saveRun(ctx context.Context, runs RunRepository, request *RecommendRequest, prefs *recommend.Preferences, response *RecommendResponse) string {
	if runs == nil {
		return ""
	}

	payload, err := json.Marshal(&runPayload{
		Recommendations: response.Recommendations,
		Weights:         response.Weights,
	})
	if err != nil {
		log.Warn().Err(err).Msg("could not marshal run payload")
		return ""
	}

	tickers := make([]string, 0, len(response.Recommendations))
	if !recommend.IsSentinel(response.Recommendations) {
		for _, rec := range response.Recommendations {
			tickers = append(tickers, rec.Ticker)
		}
	}

	row := &runlog.Row{
		Query:    strings.TrimSpace(request.Query),
		ESGPref:  string(prefs.ESG),
		RiskPref: string(prefs.Risk),
		Industry: prefs.Industry,
		Tickers:  tickers,
		Fitness:  response.Fitness,
		Payload:  payload,
	}
	if err := runs.Save(ctx, row); err != nil {
		log.Warn().Stack().Err(err).Msg("could not save recommendation run")
		return ""
	}

	return row.ID.String()
}

func preferencesFrom(request *RecommendRequest) *recommend.Preferences {
	if strings.TrimSpace(request.Query) != "" {
		return recommend.ParseQuery(request.Query)
	}

	return &recommend.Preferences{
		ESG:      parseCategory(request.ESG),
		Risk:     parseCategory(request.Risk),
		Industry: strings.TrimSpace(request.Industry),
	}
}

func parseCategory(text string) recommend.Category {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "low":
		return recommend.Low
	case "high":
		return recommend.High
	default:
		return recommend.Medium
	}
}

func allocationOptions(params *AllocationParams) portfolio.Options {
	opts := portfolio.DefaultOptions()
	if params == nil {
		return opts
	}

	if params.Population > 0 {
		opts.PopulationSize = params.Population
	}
	if params.Generations > 0 {
		opts.Generations = params.Generations
	}
	if params.EliteFraction > 0 {
		opts.EliteFraction = params.EliteFraction
	}
	if params.MutationRate > 0 {
		opts.MutationRate = params.MutationRate
	}
	return opts
}
