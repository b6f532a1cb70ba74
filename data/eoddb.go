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
	"strings"
	"time"

	"github.com/greenfolio/gf-api/common"
	"github.com/greenfolio/gf-api/database"
	"github.com/greenfolio/gf-api/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

type eodDb struct{}

// NewEodDb creates a data provider backed by the eod price table
func NewEodDb() *eodDb {
	return &eodDb{}
}

func (provider *eodDb) SourceName() string {
	return SourceEodDb
}

// FetchPrices loads the adjusted close history for ticker from the eod
// table. Rows with a null or NaN adjusted close are skipped.
func (provider *eodDb) FetchPrices(ctx context.Context, ticker string, period string, interval string) (*PriceSeries, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "eoddb.FetchPrices")
	defer span.End()

	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	subLog := log.With().Str("Source", SourceEodDb).Str("Ticker", ticker).Str("Period", period).Logger()

	tz := common.GetTimezone()
	end := time.Now().In(tz)
	begin := periodStart(end, period)

	trx, err := database.Trx(ctx)
	if err != nil {
		span.RecordError(err)
		msg := "could not get database transaction"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Msg(msg)
		return nil, err
	}

	sql := "SELECT event_date, adj_close FROM eod WHERE ticker=$1 AND adj_close IS NOT NULL AND event_date BETWEEN $2 AND $3 ORDER BY event_date ASC"
	rows, err := trx.Query(ctx, sql, ticker, begin, end)
	if err != nil {
		span.RecordError(err)
		msg := "eod query failed"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Msg(msg)
		if err := trx.Rollback(context.Background()); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	series := &PriceSeries{
		Ticker: ticker,
		Dates:  make([]time.Time, 0, 252),
		Close:  make([]float64, 0, 252),
	}

	for rows.Next() {
		var eventDate time.Time
		var adjClose float64

		if err := rows.Scan(&eventDate, &adjClose); err != nil {
			span.RecordError(err)
			msg := "could not scan eod row"
			span.SetStatus(codes.Error, msg)
			subLog.Warn().Stack().Err(err).Msg(msg)
			if err := trx.Rollback(context.Background()); err != nil {
				subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return nil, err
		}

		if math.IsNaN(adjClose) || math.IsInf(adjClose, 0) {
			continue
		}

		series.Dates = append(series.Dates, time.Date(eventDate.Year(), eventDate.Month(), eventDate.Day(), 16, 0, 0, 0, tz))
		series.Close = append(series.Close, adjClose)
	}

	if err := trx.Commit(context.Background()); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	sortSeries(series)
	return series, nil
}
