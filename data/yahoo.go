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
	"fmt"
	"math"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/greenfolio/gf-api/common"
	"github.com/greenfolio/gf-api/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var yahooAPI = "https://query1.finance.yahoo.com"

type yahoo struct{}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// NewYahoo creates a new yahoo finance data provider
func NewYahoo() *yahoo {
	return &yahoo{}
}

func (y *yahoo) SourceName() string {
	return SourceYahoo
}

// FetchPrices downloads the chart history for ticker from the yahoo v8
// finance API and normalizes it to a PriceSeries. Null quotes are dropped;
// the adjusted close stream is preferred over the raw close when present.
func (y *yahoo) FetchPrices(ctx context.Context, ticker string, period string, interval string) (*PriceSeries, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "yahoo.FetchPrices")
	defer span.End()

	subLog := log.With().Str("Source", SourceYahoo).Str("Ticker", ticker).Str("Period", period).Str("Interval", interval).Logger()

	url := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s&events=div%%7Csplit", yahooAPI, ticker, period, interval)
	span.SetAttributes(
		attribute.KeyValue{
			Key:   attribute.Key("Url"),
			Value: attribute.StringValue(url),
		},
		attribute.KeyValue{
			Key:   attribute.Key("Ticker"),
			Value: attribute.StringValue(ticker),
		},
	)

	body, err := cachedHTTPGet(ctx, url)
	if err != nil {
		span.RecordError(err)
		msg := "chart request failed"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Err(err).Msg(msg)
		return nil, err
	}

	chartResp := yahooChartResponse{}
	if err := json.Unmarshal(body, &chartResp); err != nil {
		span.RecordError(err)
		msg := "could not unmarshal chart response"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Err(err).Msg(msg)
		return nil, err
	}

	if chartResp.Chart.Error != nil {
		subLog.Info().Str("Code", chartResp.Chart.Error.Code).Str("Description", chartResp.Chart.Error.Description).Msg("yahoo returned an error payload")
		return nil, ErrNoCoverage
	}

	if len(chartResp.Chart.Result) == 0 {
		return nil, ErrNoCoverage
	}

	result := chartResp.Chart.Result[0]
	var closes []*float64
	switch {
	case len(result.Indicators.AdjClose) > 0 && len(result.Indicators.AdjClose[0].AdjClose) > 0:
		closes = result.Indicators.AdjClose[0].AdjClose
	case len(result.Indicators.Quote) > 0:
		closes = result.Indicators.Quote[0].Close
	}

	nyc := common.GetTimezone()
	series := &PriceSeries{
		Ticker: strings.ToUpper(ticker),
		Dates:  make([]time.Time, 0, len(result.Timestamp)),
		Close:  make([]float64, 0, len(result.Timestamp)),
	}

	for idx, stamp := range result.Timestamp {
		if idx >= len(closes) {
			break
		}
		if closes[idx] == nil {
			continue
		}
		val := *closes[idx]
		if math.IsNaN(val) || math.IsInf(val, 0) {
			continue
		}
		eventDate := time.Unix(stamp, 0).In(nyc)
		series.Dates = append(series.Dates, time.Date(eventDate.Year(), eventDate.Month(), eventDate.Day(), 16, 0, 0, 0, nyc))
		series.Close = append(series.Close, val)
	}

	sortSeries(series)
	return series, nil
}
