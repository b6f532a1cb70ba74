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

package universe

import (
	"context"

	"github.com/greenfolio/gf-api/database"
	"github.com/greenfolio/gf-api/filter"
	"github.com/greenfolio/gf-api/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var universeFields = []string{"ticker"}

var universeSafeFields = []string{
	"coalesce(name, '') as name",
	"coalesce(sector, '') as sector",
	"coalesce(industry, '') as industry",
	"esg_score",
	"coalesce(market_cap, 0) as market_cap",
}

// FromDB loads the security universe from the esg score table. Rows
// without an esg score are excluded. Additional where clauses may be
// supplied using the filter query syntax, e.g. {"sector": "eq.Technology"}
func FromDB(ctx context.Context, where map[string]string) (*Universe, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "universe.FromDB")
	defer span.End()

	table := viper.GetString("esg.table")
	if table == "" {
		table = "esg_scores"
	}

	subLog := log.With().Str("Table", table).Logger()

	merged := map[string]string{
		"esg_score": "gte.0",
	}
	for k, v := range where {
		merged[k] = v
	}

	sql, args, err := filter.BuildQuery(table, universeFields, universeSafeFields, merged, "ticker ASC")
	if err != nil {
		span.RecordError(err)
		msg := "could not build universe query"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Msg(msg)
		return nil, err
	}

	trx, err := database.Trx(ctx)
	if err != nil {
		span.RecordError(err)
		msg := "could not get database transaction"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Msg(msg)
		return nil, err
	}

	rows, err := trx.Query(ctx, sql, args...)
	if err != nil {
		span.RecordError(err)
		msg := "universe query failed"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Msg(msg)
		if err := trx.Rollback(context.Background()); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	records := make([]*Record, 0, 256)
	for rows.Next() {
		record := &Record{}
		if err := rows.Scan(&record.Ticker, &record.Name, &record.Sector, &record.Industry, &record.ESGScore, &record.MarketCap); err != nil {
			span.RecordError(err)
			msg := "could not scan universe row"
			span.SetStatus(codes.Error, msg)
			subLog.Warn().Stack().Err(err).Msg(msg)
			if err := trx.Rollback(context.Background()); err != nil {
				subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return nil, err
		}
		records = append(records, record)
	}

	if err := trx.Commit(context.Background()); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	subLog.Info().Int("NumRecords", len(records)).Msg("loaded security universe from database")
	return New(records...), nil
}
