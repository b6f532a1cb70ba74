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
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ListCache describes every cached price file.
func ListCache(c *fiber.Ctx) error {
	deps := getDeps()
	if deps == nil || deps.Manager == nil {
		log.Error().Msg("cache listing requested before services were initialized")
		return fiber.ErrServiceUnavailable
	}

	files, err := deps.Manager.Store().List()
	if err != nil {
		log.Error().Stack().Err(err).Str("Endpoint", "ListCache").Msg("could not list price cache")
		return fiber.ErrInternalServerError
	}

	return c.JSON(files)
}

// DeleteCache drops the cached price file for one ticker. Deleting a
// ticker that is not cached succeeds; the next fetch refills either way.
func DeleteCache(c *fiber.Ctx) error {
	deps := getDeps()
	if deps == nil || deps.Manager == nil {
		log.Error().Msg("cache delete requested before services were initialized")
		return fiber.ErrServiceUnavailable
	}

	ticker := strings.ToUpper(strings.TrimSpace(c.Params("ticker")))
	if ticker == "" {
		return fiber.ErrBadRequest
	}

	if err := deps.Manager.Store().Delete(ticker); err != nil {
		log.Error().Stack().Err(err).Str("Endpoint", "DeleteCache").Str("Ticker", ticker).Msg("could not delete cached prices")
		return fiber.ErrInternalServerError
	}

	log.Info().Str("Ticker", ticker).Msg("deleted cached prices")
	return c.SendStatus(fiber.StatusNoContent)
}
