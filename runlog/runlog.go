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

// Package runlog persists a row per recommendation run so results can be
// replayed later. Saving is best-effort from the caller's point of view; a
// run that cannot be logged is still returned to the requester.
package runlog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"

	"github.com/greenfolio/gf-api/common"
	"github.com/greenfolio/gf-api/database"
	"github.com/greenfolio/gf-api/observability/opentelemetry"
)

var (
	ErrNotFound = errors.New("run not found")
)

// Row is one logged recommendation run. Payload holds the JSON document
// of recommendations and weights; it is stored lz4 compressed and
// transparently decompressed on read.
type Row struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Query     string    `json:"query"`
	ESGPref   string    `json:"esgPref"`
	RiskPref  string    `json:"riskPref"`
	Industry  string    `json:"industry"`
	Tickers   []string  `json:"tickers"`
	Fitness   float64   `json:"fitness"`
	Payload   []byte    `json:"-"`
}

type repository struct {
	table string
}

// NewRepository creates a run log repository against the configured
// runlog.table.
func NewRepository() *repository {
	table := viper.GetString("runlog.table")
	if table == "" {
		table = "recommendation_runs"
	}
	return &repository{table: table}
}

// Save writes the row, assigning an ID and timestamp when unset and
// compressing the payload. Callers treat a failure as non-fatal.
func (r *repository) Save(ctx context.Context, row *Row) error {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "runlog.Save")
	defer span.End()

	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}

	subLog := log.With().Str("RunID", row.ID.String()).Str("Table", r.table).Logger()

	payload, err := common.Compress(row.Payload)
	if err != nil {
		span.RecordError(err)
		subLog.Error().Stack().Err(err).Msg("could not compress run payload")
		return err
	}

	trx, err := database.Trx(ctx)
	if err != nil {
		span.RecordError(err)
		subLog.Error().Stack().Err(err).Msg("could not get database transaction")
		return err
	}

	sql := `INSERT INTO "` + r.table + `" (
		"id",
		"created_at",
		"query",
		"esg_pref",
		"risk_pref",
		"industry",
		"tickers",
		"payload",
		"fitness"
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9
	)`

	if _, err := trx.Exec(ctx, sql, row.ID.String(), row.CreatedAt, row.Query,
		row.ESGPref, row.RiskPref, row.Industry, row.Tickers, payload, row.Fitness); err != nil {
		span.RecordError(err)
		subLog.Error().Stack().Err(err).Msg("could not save run")
		if err := trx.Rollback(context.Background()); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}

		return err
	}

	if err := trx.Commit(context.Background()); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not commit run to database")
		return err
	}

	subLog.Info().Int("NumTickers", len(row.Tickers)).Msg("logged recommendation run")
	return nil
}

// Recent returns the newest limit rows without their payloads.
func (r *repository) Recent(ctx context.Context, limit int) ([]*Row, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "runlog.Recent")
	defer span.End()

	if limit <= 0 {
		limit = 10
	}

	subLog := log.With().Str("Table", r.table).Int("Limit", limit).Logger()

	trx, err := database.Trx(ctx)
	if err != nil {
		span.RecordError(err)
		subLog.Error().Stack().Err(err).Msg("could not get database transaction")
		return nil, err
	}

	sql := `SELECT "id", "created_at", "query", "esg_pref", "risk_pref", "industry", "tickers", "fitness" FROM "` +
		r.table + `" ORDER BY created_at DESC LIMIT $1`

	rows, err := trx.Query(ctx, sql, limit)
	if err != nil {
		span.RecordError(err)
		subLog.Error().Stack().Err(err).Msg("could not query runs")
		if err := trx.Rollback(context.Background()); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}

		return nil, err
	}

	runs := make([]*Row, 0, limit)
	for rows.Next() {
		var (
			row Row
			id  string
		)
		if err := rows.Scan(&id, &row.CreatedAt, &row.Query, &row.ESGPref,
			&row.RiskPref, &row.Industry, &row.Tickers, &row.Fitness); err != nil {
			span.RecordError(err)
			subLog.Error().Stack().Err(err).Msg("could not scan run row")
			if err := trx.Rollback(context.Background()); err != nil {
				subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
			}

			return nil, err
		}

		if row.ID, err = uuid.Parse(id); err != nil {
			span.RecordError(err)
			subLog.Error().Stack().Err(err).Str("ID", id).Msg("run has an invalid id")
			if err := trx.Rollback(context.Background()); err != nil {
				subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
			}

			return nil, err
		}

		runs = append(runs, &row)
	}

	if err := trx.Commit(context.Background()); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	return runs, nil
}

// Get loads a single run with its payload decompressed.
func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Row, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "runlog.Get")
	defer span.End()

	subLog := log.With().Str("Table", r.table).Str("RunID", id.String()).Logger()

	trx, err := database.Trx(ctx)
	if err != nil {
		span.RecordError(err)
		subLog.Error().Stack().Err(err).Msg("could not get database transaction")
		return nil, err
	}

	sql := `SELECT "id", "created_at", "query", "esg_pref", "risk_pref", "industry", "tickers", "payload", "fitness" FROM "` +
		r.table + `" WHERE id = $1 LIMIT 1`

	var (
		row     Row
		rowID   string
		payload []byte
	)
	err = trx.QueryRow(ctx, sql, id.String()).Scan(&rowID, &row.CreatedAt, &row.Query,
		&row.ESGPref, &row.RiskPref, &row.Industry, &row.Tickers, &payload, &row.Fitness)
	if err != nil {
		if rollbackErr := trx.Rollback(context.Background()); rollbackErr != nil {
			subLog.Error().Stack().Err(rollbackErr).Msg("could not rollback transaction")
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		span.RecordError(err)
		subLog.Error().Stack().Err(err).Msg("could not load run")
		return nil, err
	}

	if err := trx.Commit(context.Background()); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	if row.ID, err = uuid.Parse(rowID); err != nil {
		span.RecordError(err)
		subLog.Error().Stack().Err(err).Str("ID", rowID).Msg("run has an invalid id")
		return nil, err
	}

	if row.Payload, err = common.Decompress(payload); err != nil {
		span.RecordError(err)
		subLog.Error().Stack().Err(err).Msg("could not decompress run payload")
		return nil, err
	}

	return &row, nil
}
