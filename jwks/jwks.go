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

package jwks

import (
	"context"

	"github.com/lestrrat-go/jwx/jwk"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// SetupJWKS starts an auto-refreshing JWKS cache for the configured
// auth.jwks_url and performs the initial fetch. Returns nil when no URL
// is configured, which disables JWT validation.
func SetupJWKS() (*jwk.AutoRefresh, string) {
	jwksURL := viper.GetString("auth.jwks_url")
	if jwksURL == "" {
		log.Info().Msg("auth.jwks_url is not set; jwt validation is unavailable")
		return nil, ""
	}

	log.Debug().Str("Url", jwksURL).Msg("reading JWKS")

	ar := jwk.NewAutoRefresh(context.Background())
	ar.Configure(jwksURL)
	if _, err := ar.Fetch(context.Background(), jwksURL); err != nil {
		log.Error().Err(err).Str("Url", jwksURL).Msg("initial JWKS fetch failed; will retry in the background")
	}

	return ar, jwksURL
}
