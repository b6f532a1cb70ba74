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
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/greenfolio/gf-api/common"
	"github.com/greenfolio/gf-api/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var stooqURL = "https://stooq.com"

type stooq struct{}

// NewStooq creates a new stooq.com data provider
func NewStooq() *stooq {
	return &stooq{}
}

func (s *stooq) SourceName() string {
	return SourceStooq
}

// FetchPrices downloads daily history from stooq's CSV endpoint and
// normalizes it to a PriceSeries. US listings are queried with the .us
// exchange suffix; columns are resolved through the alias table.
func (s *stooq) FetchPrices(ctx context.Context, ticker string, period string, interval string) (*PriceSeries, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "stooq.FetchPrices")
	defer span.End()

	subLog := log.With().Str("Source", SourceStooq).Str("Ticker", ticker).Str("Period", period).Str("Interval", interval).Logger()

	symbol := strings.ToLower(strings.TrimSpace(ticker))
	if !strings.Contains(symbol, ".") {
		symbol = fmt.Sprintf("%s.us", symbol)
	}

	end := time.Now().In(common.GetTimezone())
	begin := periodStart(end, period)

	url := fmt.Sprintf("%s/q/d/l/?s=%s&d1=%s&d2=%s&i=%s", stooqURL, symbol,
		begin.Format("20060102"), end.Format("20060102"), stooqInterval(interval))
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
		msg := "download request failed"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Err(err).Msg(msg)
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.HasPrefix(trimmed, []byte("No data")) {
		return nil, ErrNoCoverage
	}

	series, err := parsePriceCSV(body, ticker)
	if err != nil {
		span.RecordError(err)
		subLog.Warn().Err(err).Msg("could not parse stooq response")
		return nil, err
	}

	return series, nil
}

// stooqInterval maps the yahoo-style interval strings used throughout the
// data package onto stooq's single-letter codes.
func stooqInterval(interval string) string {
	switch interval {
	case "1wk":
		return "w"
	case "1mo":
		return "m"
	default:
		return "d"
	}
}
