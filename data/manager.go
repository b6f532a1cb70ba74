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

package data

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/greenfolio/gf-api/common"
	"github.com/greenfolio/gf-api/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

// PriceSource retrieves normalized daily price history for a single
// ticker. period is a lookback window like 2y or 6mo; interval is the bar
// size, normally 1d.
type PriceSource interface {
	SourceName() string
	FetchPrices(ctx context.Context, ticker string, period string, interval string) (*PriceSeries, error)
}

// Manager coordinates price acquisition across an ordered list of live
// sources and the on-disk cache store.
type Manager struct {
	store   *CacheStore
	sources []PriceSource
}

// NewManager creates a price data manager. Live sources are tried in the
// order given.
func NewManager(store *CacheStore, sources ...PriceSource) *Manager {
	return &Manager{
		store:   store,
		sources: sources,
	}
}

// NewDefaultManager builds a manager from configuration: live sources in
// prices.sources order (default yahoo then stooq), the eod database when
// prices.use_db is set, and a cache store rooted at prices.cache_dir.
func NewDefaultManager() *Manager {
	names := viper.GetStringSlice("prices.sources")
	if len(names) == 0 {
		names = []string{SourceYahoo, SourceStooq}
	}

	hasDb := false
	sources := make([]PriceSource, 0, len(names)+1)
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case SourceYahoo:
			sources = append(sources, NewYahoo())
		case SourceStooq:
			sources = append(sources, NewStooq())
		case SourceEodDb:
			sources = append(sources, NewEodDb())
			hasDb = true
		default:
			log.Warn().Str("Source", name).Msg("unknown price source in configuration; skipping")
		}
	}

	if viper.GetBool("prices.use_db") && !hasDb {
		sources = append(sources, NewEodDb())
	}

	return NewManager(NewCacheStore(viper.GetString("prices.cache_dir")), sources...)
}

// Store returns the manager's cache store.
func (manager *Manager) Store() *CacheStore {
	return manager.store
}

// attemptStrategy is one entry in the ordered fallback chain for a ticker.
type attemptStrategy struct {
	source string
	fetch  func(ctx context.Context) (*PriceSeries, error)
}

// strategiesFor builds the ordered attempt chain. live-first tries the
// live sources then the cache; cache-first consults the cache before any
// live source.
func (manager *Manager) strategiesFor(ticker string, period string, interval string, mode string) []attemptStrategy {
	live := make([]attemptStrategy, 0, len(manager.sources)+1)
	for _, source := range manager.sources {
		source := source
		live = append(live, attemptStrategy{
			source: source.SourceName(),
			fetch: func(ctx context.Context) (*PriceSeries, error) {
				return source.FetchPrices(ctx, ticker, period, interval)
			},
		})
	}

	cacheAttempt := attemptStrategy{
		source: SourceCache,
		fetch: func(_ context.Context) (*PriceSeries, error) {
			return manager.store.Load(ticker)
		},
	}

	if mode == ModeCacheFirst {
		return append([]attemptStrategy{cacheAttempt}, live...)
	}
	return append(live, cacheAttempt)
}

// classify converts one fetch result into a typed attempt outcome.
func classify(series *PriceSeries, err error, minRows int) Outcome {
	switch {
	case err != nil && (errors.Is(err, ErrNoCoverage) || errors.Is(err, ErrUnresolvedSchema)):
		return OutcomeEmpty
	case err != nil:
		return OutcomeFailed
	case series == nil || series.Len() == 0:
		return OutcomeEmpty
	case series.Len() < minRows:
		return OutcomeThin
	default:
		return OutcomeOK
	}
}

// runAttempts walks the strategy chain applying the minimum-row gate. The
// first attempt with at least minRows rows wins and later strategies are
// not consulted; when no attempt clears the gate the largest non-empty
// result is used instead. The full attempt history is returned for
// diagnostics.
func runAttempts(ctx context.Context, strategies []attemptStrategy, minRows int, timeout time.Duration) (*PriceSeries, []Attempt) {
	attempts := make([]Attempt, 0, len(strategies))

	var best *PriceSeries
	for _, strategy := range strategies {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		series, err := strategy.fetch(attemptCtx)
		cancel()

		outcome := classify(series, err, minRows)
		rows := 0
		if series != nil {
			rows = series.Len()
		}

		attempts = append(attempts, Attempt{
			Source:  strategy.source,
			Outcome: outcome,
			Rows:    rows,
			Err:     err,
		})

		switch outcome {
		case OutcomeOK:
			return series, attempts
		case OutcomeThin:
			if best == nil || rows > best.Len() {
				best = series
			}
		}
	}

	return best, attempts
}

// FetchTicker runs the fallback chain for a single ticker and persists
// whatever result is accepted. It returns nil when every source came up
// empty or failed; the attempt history describes what each source did.
func (manager *Manager) FetchTicker(ctx context.Context, ticker string, period string, interval string, mode string, minRows int) (*PriceSeries, []Attempt) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "data.FetchTicker")
	defer span.End()

	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	subLog := log.With().Str("Ticker", ticker).Str("Mode", mode).Int("MinRows", minRows).Logger()

	timeout := viper.GetDuration("prices.timeout")
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	strategies := manager.strategiesFor(ticker, period, interval, mode)
	series, attempts := runAttempts(ctx, strategies, minRows, timeout)

	for _, attempt := range attempts {
		subLog.Debug().Str("Source", attempt.Source).Str("Outcome", attempt.Outcome.String()).Int("Rows", attempt.Rows).Msg("price source attempt")
	}

	if series == nil || series.Len() == 0 {
		msg := "no price source produced data"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Msg(msg)
		return nil, attempts
	}

	subLog.Debug().Int("Rows", series.Len()).Time("PeriodStart", series.Start()).Time("PeriodEnd", series.End()).Msg("accepted price series")

	if err := manager.store.Save(series); err != nil {
		span.RecordError(err)
		subLog.Error().Stack().Err(err).Msg("could not persist price series")
	}

	return series, attempts
}

type seriesResult struct {
	Ticker   string
	Series   *PriceSeries
	Attempts []Attempt
}

// FetchSeries fetches normalized price history for each ticker, fanning
// work out across prices.max_parallel workers. Tickers where every source
// came up empty are absent from the returned map; failures never abort the
// run.
func (manager *Manager) FetchSeries(ctx context.Context, tickers []string, period string, interval string, mode string, minRows int) map[string]*PriceSeries {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "data.FetchSeries")
	defer span.End()

	maxParallel := viper.GetInt("prices.max_parallel")
	if maxParallel <= 0 {
		maxParallel = 4
	}

	normalized := make([]string, len(tickers))
	copy(normalized, tickers)
	common.ArrToUpper(normalized)

	res := make(map[string]*PriceSeries, len(tickers))
	ch := make(chan seriesResult)

	for _, chunk := range partitionArray(normalized, maxParallel) {
		for idx := range chunk {
			go seriesWorker(ctx, ch, manager, chunk[idx], period, interval, mode, minRows)
		}
		for range chunk {
			result := <-ch
			if result.Series != nil && result.Series.Len() > 0 {
				res[result.Ticker] = result.Series
			} else {
				log.Warn().Str("Ticker", result.Ticker).Int("SourcesTried", len(result.Attempts)).Msg("no usable price data for ticker; excluding from results")
			}
		}
	}

	return res
}

// Refresh re-fetches daily price history from live sources for every
// ticker and persists the refreshed series to the cache. It returns the
// number of tickers that produced a usable series.
func (manager *Manager) Refresh(ctx context.Context, tickers []string) int {
	lookback := viper.GetInt("prices.lookback_days")
	if lookback <= 0 {
		lookback = 252
	}
	minRows := viper.GetInt("prices.min_rows")
	if minRows <= 0 {
		minRows = 120
	}

	seriesMap := manager.FetchSeries(ctx, tickers, periodForLookback(lookback), "1d", ModeLiveFirst, minRows)
	return len(seriesMap)
}

func seriesWorker(ctx context.Context, result chan<- seriesResult, manager *Manager, ticker string, period string, interval string, mode string, minRows int) {
	series, attempts := manager.FetchTicker(ctx, ticker, period, interval, mode, minRows)
	result <- seriesResult{
		Ticker:   ticker,
		Series:   series,
		Attempts: attempts,
	}
}
