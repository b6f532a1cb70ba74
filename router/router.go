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

package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lestrrat-go/jwx/jwk"

	"github.com/greenfolio/gf-api/handler"
	"github.com/greenfolio/gf-api/middleware"
)

// SetupRoutes registers the v1 API behind authentication.
func SetupRoutes(app *fiber.App, jwks *jwk.AutoRefresh, jwksURL string) {
	api := app.Group("/v1", middleware.GfAuth(jwks, jwksURL))
	api.Get("/", handler.Ping)

	api.Post("/recommend", handler.Recommend)
	api.Get("/securities", handler.ListSecurities)
	api.Get("/prices/:ticker", handler.GetPrices)

	cache := api.Group("/cache")
	cache.Get("/", handler.ListCache)
	cache.Delete("/:ticker", handler.DeleteCache)

	runs := api.Group("/runs")
	runs.Get("/", handler.ListRuns)
	runs.Get("/:id", handler.GetRun)
}
