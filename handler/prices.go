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
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/greenfolio/gf-api/data"
)

type PriceSeriesResponse struct {
	Ticker string      `json:"ticker"`
	Dates  []time.Time `json:"dates"`
	Close  []float64   `json:"close"`
}

// GetPrices returns the normalized close series for one ticker over the
// trailing lookback window, served live-first through the cache.
func GetPrices(c *fiber.Ctx) error {
	deps := getDeps()
	if deps == nil || deps.Manager == nil {
		log.Error().Msg("prices requested before services were initialized")
		return fiber.ErrServiceUnavailable
	}

	ticker := strings.ToUpper(strings.TrimSpace(c.Params("ticker")))
	if ticker == "" {
		return fiber.ErrBadRequest
	}

	subLog := log.With().Str("Endpoint", "GetPrices").Str("Ticker", ticker).Logger()

	request := deps.Manager.Prices(ticker)
	if lookbackStr := c.Query("lookback"); lookbackStr != "" {
		lookback, err := strconv.Atoi(lookbackStr)
		if err != nil || lookback <= 0 {
			subLog.Warn().Str("Lookback", lookbackStr).Msg("invalid lookback parameter")
			return fiber.ErrBadRequest
		}
		request = request.Lookback(lookback)
	}

	matrix, err := request.Matrix(context.Background())
	if err != nil {
		if errors.Is(err, data.ErrEmptyMatrix) {
			subLog.Warn().Msg("no usable price data for ticker")
			return fiber.ErrNotFound
		}
		subLog.Error().Stack().Err(err).Msg("could not build price series")
		return fiber.ErrInternalServerError
	}

	col := matrix.ColIndex(ticker)
	if col < 0 {
		return fiber.ErrNotFound
	}

	return c.JSON(&PriceSeriesResponse{
		Ticker: ticker,
		Dates:  matrix.Dates,
		Close:  matrix.Vals[col],
	})
}
