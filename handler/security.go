// Copyright 2021-2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/greenfolio/gf-api/filter"
)

// ListSecurities returns the investable universe with its ESG fields,
// optionally narrowed by the industry query parameter. When the universe
// is database-backed the listing reads the table directly so refreshed
// scores show up without waiting for the next scheduled reload; CSV-backed
// deployments serve the in-memory snapshot.
func ListSecurities(c *fiber.Ctx) error {
	industry := strings.TrimSpace(c.Query("industry"))

	if viper.GetString("esg.file") == "" {
		where := map[string]string{}
		if industry != "" {
			where["industry"] = fmt.Sprintf("ilike.%%%s%%", industry)
		}

		body, err := filter.SecuritiesJSON(context.Background(), where)
		if err != nil {
			log.Warn().Stack().Err(err).Str("Endpoint", "ListSecurities").Msg("securities query failed")
			return fiber.ErrInternalServerError
		}

		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
		return c.Send(body)
	}

	deps := getDeps()
	if deps == nil || deps.Universe == nil {
		log.Error().Msg("securities requested before the universe was loaded")
		return fiber.ErrServiceUnavailable
	}

	return c.JSON(deps.Universe.Filter(industry).Records())
}
