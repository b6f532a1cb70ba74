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
	"errors"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/greenfolio/gf-api/runlog"
)

// RunDetail is one archived run with its stored result expanded back into
// JSON.
type RunDetail struct {
	*runlog.Row
	Result json.RawMessage `json:"result,omitempty"`
}

// ListRuns returns recent run log rows, newest first.
func ListRuns(c *fiber.Ctx) error {
	deps := getDeps()
	if deps == nil || deps.Runs == nil {
		log.Error().Msg("run history requested before services were initialized")
		return fiber.ErrServiceUnavailable
	}

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			log.Warn().Str("Limit", limitStr).Msg("invalid limit parameter")
			return fiber.ErrBadRequest
		}
		limit = parsed
	}

	rows, err := deps.Runs.Recent(context.Background(), limit)
	if err != nil {
		log.Error().Stack().Err(err).Str("Endpoint", "ListRuns").Msg("could not list recommendation runs")
		return fiber.ErrInternalServerError
	}

	return c.JSON(rows)
}

// GetRun returns a single archived run including its stored result.
func GetRun(c *fiber.Ctx) error {
	deps := getDeps()
	if deps == nil || deps.Runs == nil {
		log.Error().Msg("run history requested before services were initialized")
		return fiber.ErrServiceUnavailable
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		log.Warn().Str("ID", c.Params("id")).Msg("invalid run id")
		return fiber.ErrBadRequest
	}

	row, err := deps.Runs.Get(context.Background(), id)
	if err != nil {
		if errors.Is(err, runlog.ErrNotFound) {
			return fiber.ErrNotFound
		}
		log.Error().Stack().Err(err).Str("Endpoint", "GetRun").Str("ID", id.String()).Msg("could not load recommendation run")
		return fiber.ErrInternalServerError
	}

	return c.JSON(&RunDetail{Row: row, Result: json.RawMessage(row.Payload)})
}
