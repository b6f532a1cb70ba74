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

// Package recommend classifies the ESG universe into recommendation tiers
// against user preferences. Tickers are bucketed by ESG score and realized
// volatility, then tiered Green, Yellow, or Red by how closely the buckets
// match the requested profile. Risk buckets are relative to the current
// candidate set, not fixed bands.
package recommend

import (
	"context"
	"math"

	"github.com/greenfolio/gf-api/data"
	"github.com/greenfolio/gf-api/dataframe"
	"github.com/greenfolio/gf-api/observability/opentelemetry"
	"github.com/greenfolio/gf-api/sentiment"
	"github.com/greenfolio/gf-api/universe"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
)

// Category buckets an ESG score or a volatility value.
type Category string

const (
	Low    Category = "Low"
	Medium Category = "Medium"
	High   Category = "High"
)

// Tier grades how well a ticker matches the requested profile.
type Tier string

const (
	TierGreen  Tier = "Green"
	TierYellow Tier = "Yellow"
	TierRed    Tier = "Red"
)

// NoSuitableMatch is the ticker of the sentinel record returned when no
// candidate is eligible. It lets callers distinguish "ran, found nothing"
// from "not yet run".
const NoSuitableMatch = "No suitable match"

// Recommendation is one classified ticker. Immutable once emitted.
type Recommendation struct {
	Ticker       string          `json:"ticker"`
	ESGScore     float64         `json:"esgScore"`
	ESGCategory  Category        `json:"esgCategory"`
	RiskCategory Category        `json:"riskCategory"`
	Volatility   float64         `json:"volatility"`
	Sentiment    sentiment.Label `json:"sentiment"`
	Industry     string          `json:"industry"`
	Tier         Tier            `json:"tier"`
}

// RunStats carries the per-run intermediates alongside the classified
// list: the aligned price matrix, the derived thresholds, and annualized
// return / volatility per ticker for the allocator.
type RunStats struct {
	Prices     *dataframe.DataFrame
	Thresholds Thresholds
	Returns    map[string]float64
	Volatility map[string]float64
}

// Engine ties a universe, a sentiment label map, and a price manager into
// a recommendation pipeline. Engines hold no cross-call state.
type Engine struct {
	universe *universe.Universe
	labels   map[string]sentiment.Label
	manager  *data.Manager
}

func NewEngine(u *universe.Universe, labels map[string]sentiment.Label, manager *data.Manager) *Engine {
	return &Engine{
		universe: u,
		labels:   labels,
		manager:  manager,
	}
}

// Recommend classifies every eligible candidate. The result is always
// well-formed: an empty eligible set yields the single sentinel record,
// never an error.
func (engine *Engine) Recommend(ctx context.Context, prefs *Preferences) []*Recommendation {
	recommendations, _ := engine.Classify(ctx, prefs)
	return recommendations
}

// Classify runs the full tiering pipeline and also returns the run
// intermediates for downstream allocation and reporting.
func (engine *Engine) Classify(ctx context.Context, prefs *Preferences) ([]*Recommendation, *RunStats) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "recommend.Classify")
	defer span.End()

	subLog := log.With().Str("ESGPref", string(prefs.ESG)).Str("RiskPref", string(prefs.Risk)).Str("Industry", prefs.Industry).Logger()

	stats := &RunStats{
		Thresholds: VolatilityThresholds(nil),
		Returns:    make(map[string]float64),
		Volatility: make(map[string]float64),
	}

	candidates := engine.universe.Filter(prefs.Industry)
	if candidates.Len() == 0 {
		subLog.Warn().Msg("no candidates after industry filter")
		return sentinel(), stats
	}

	prices, err := engine.manager.Prices(candidates.Tickers()...).Matrix(ctx)
	if err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not build price matrix")
		return sentinel(), stats
	}

	returns := prices.PctChange(1)
	stats.Prices = prices
	stats.Returns = annualizedReturns(returns)
	stats.Volatility = annualizedVolatility(returns)
	stats.Thresholds = VolatilityThresholds(stats.Volatility)

	subLog.Info().
		Float64("LowThreshold", stats.Thresholds.Low).
		Float64("HighThreshold", stats.Thresholds.High).
		Int("NumCandidates", candidates.Len()).
		Msg("derived risk thresholds")

	recommendations := make([]*Recommendation, 0, candidates.Len())
	for _, record := range candidates.Records() {
		volatility, ok := stats.Volatility[record.Ticker]
		if !ok || math.IsNaN(record.ESGScore) {
			continue
		}

		label, ok := engine.labels[record.Ticker]
		if !ok {
			label = sentiment.Neutral
		}

		recommendation := &Recommendation{
			Ticker:       record.Ticker,
			ESGScore:     record.ESGScore,
			ESGCategory:  ESGCategory(record.ESGScore),
			RiskCategory: RiskCategory(volatility, stats.Thresholds),
			Volatility:   volatility,
			Sentiment:    label,
			Industry:     record.Industry,
		}
		recommendation.Tier = DecideTier(recommendation.ESGCategory, recommendation.RiskCategory, label, prefs)

		subLog.Debug().
			Str("Ticker", record.Ticker).
			Float64("ESGScore", record.ESGScore).
			Str("ESGCategory", string(recommendation.ESGCategory)).
			Float64("Volatility", volatility).
			Str("RiskCategory", string(recommendation.RiskCategory)).
			Str("Sentiment", string(label)).
			Str("Tier", string(recommendation.Tier)).
			Msg("classified ticker")

		recommendations = append(recommendations, recommendation)
	}

	if len(recommendations) == 0 {
		subLog.Warn().Msg("no eligible candidates")
		return sentinel(), stats
	}

	return recommendations, stats
}

// ESGCategory buckets a risk-style ESG score; lower scores are better.
func ESGCategory(score float64) Category {
	switch {
	case score < 20:
		return Low
	case score < 30:
		return Medium
	default:
		return High
	}
}

// RiskCategory buckets an annualized volatility against the derived
// thresholds.
func RiskCategory(volatility float64, thresholds Thresholds) Category {
	switch {
	case volatility <= thresholds.Low:
		return Low
	case volatility <= thresholds.High:
		return Medium
	default:
		return High
	}
}

// DecideTier applies the tier precedence: Green when both categories match
// the preference, Yellow when exactly one matches and sentiment is not
// negative, Red otherwise. Industry never enters the decision; it filters
// the candidate set upstream.
func DecideTier(esgCategory Category, riskCategory Category, label sentiment.Label, prefs *Preferences) Tier {
	esgMatch := esgCategory == prefs.ESG
	riskMatch := riskCategory == prefs.Risk

	switch {
	case esgMatch && riskMatch:
		return TierGreen
	case (esgMatch || riskMatch) && label != sentiment.Negative:
		return TierYellow
	default:
		return TierRed
	}
}

// IsSentinel reports whether recommendations is the no-match sentinel.
func IsSentinel(recommendations []*Recommendation) bool {
	return len(recommendations) == 1 && recommendations[0].Ticker == NoSuitableMatch
}

func sentinel() []*Recommendation {
	return []*Recommendation{{Ticker: NoSuitableMatch}}
}

// TierCounts tallies recommendations by tier.
func TierCounts(recommendations []*Recommendation) map[Tier]int {
	counts := make(map[Tier]int, 3)
	for _, rec := range recommendations {
		counts[rec.Tier]++
	}
	return counts
}

// Suitable returns the green and yellow picks; an allocation never puts
// weight on red tickers.
func Suitable(recommendations []*Recommendation) []*Recommendation {
	if IsSentinel(recommendations) {
		return nil
	}

	suitable := make([]*Recommendation, 0, len(recommendations))
	for _, rec := range recommendations {
		if rec.Tier == TierGreen || rec.Tier == TierYellow {
			suitable = append(suitable, rec)
		}
	}
	return suitable
}
