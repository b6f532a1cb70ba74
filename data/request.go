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
	"math"

	"github.com/greenfolio/gf-api/common"
	"github.com/greenfolio/gf-api/dataframe"
	"github.com/greenfolio/gf-api/observability/opentelemetry"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
)

// MatrixRequest assembles an aligned close-price matrix with a builder:
//
//	df, err := manager.Prices("MSFT", "AAPL").Lookback(252).Matrix(ctx)
//
// Defaults come from the prices configuration section and may be
// overridden per request.
type MatrixRequest struct {
	manager     *Manager
	tickers     []string
	lookback    int
	minRows     int
	mode        string
	interval    string
	forwardFill bool
}

// Prices starts a matrix request for the given tickers.
func (manager *Manager) Prices(tickers ...string) *MatrixRequest {
	req := &MatrixRequest{
		manager:     manager,
		tickers:     tickers,
		lookback:    viper.GetInt("prices.lookback_days"),
		minRows:     viper.GetInt("prices.min_rows"),
		mode:        viper.GetString("prices.mode"),
		interval:    "1d",
		forwardFill: viper.GetBool("prices.forward_fill"),
	}

	if req.lookback <= 0 {
		req.lookback = 252
	}
	if req.minRows <= 0 {
		req.minRows = 120
	}
	if req.mode == "" {
		req.mode = ModeLiveFirst
	}

	return req
}

func (req *MatrixRequest) Tickers(tickers ...string) *MatrixRequest {
	req.tickers = tickers
	return req
}

// Lookback sets how many trailing trading days the matrix keeps.
func (req *MatrixRequest) Lookback(days int) *MatrixRequest {
	req.lookback = days
	return req
}

// MinRows sets the minimum row gate applied to each source attempt.
func (req *MatrixRequest) MinRows(rows int) *MatrixRequest {
	req.minRows = rows
	return req
}

// Mode sets the source order mode, ModeLiveFirst or ModeCacheFirst.
func (req *MatrixRequest) Mode(mode string) *MatrixRequest {
	req.mode = mode
	return req
}

// ForwardFill controls whether gaps are filled with the prior value before
// incomplete rows are dropped.
func (req *MatrixRequest) ForwardFill(enabled bool) *MatrixRequest {
	req.forwardFill = enabled
	return req
}

// Matrix fetches every requested ticker and aligns the series into a
// single dataframe: union of dates, optional forward fill, then strict
// removal of any row where a column is still missing, trimmed to the
// trailing lookback window. Tickers with no usable data are omitted;
// ErrEmptyMatrix is returned when nothing survives.
func (req *MatrixRequest) Matrix(ctx context.Context) (*dataframe.DataFrame, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "data.Matrix")
	defer span.End()

	if req.mode != ModeLiveFirst && req.mode != ModeCacheFirst {
		return nil, ErrUnknownMode
	}

	period := periodForLookback(req.lookback)
	seriesMap := req.manager.FetchSeries(ctx, req.tickers, period, req.interval, req.mode, req.minRows)
	if len(seriesMap) == 0 {
		return nil, ErrEmptyMatrix
	}

	frames := make(dataframe.DataFrameMap, len(seriesMap))
	for ticker, series := range seriesMap {
		frames[ticker] = series.DataFrame()
	}

	order := make([]string, len(req.tickers))
	copy(order, req.tickers)
	common.ArrToUpper(order)

	df := frames.DataFrame(order...)
	if req.forwardFill {
		df = df.ForwardFill()
	}

	df = df.Drop(math.NaN())
	if df.Len() == 0 {
		return nil, ErrEmptyMatrix
	}

	return df.Tail(req.lookback), nil
}
