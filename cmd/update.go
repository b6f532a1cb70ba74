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

package cmd

import (
	"context"

	"github.com/greenfolio/gf-api/common"
	"github.com/greenfolio/gf-api/data"
	"github.com/greenfolio/gf-api/database"
	"github.com/greenfolio/gf-api/messenger"
	"github.com/greenfolio/gf-api/universe"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:   "update [tickers...]",
	Short: "Refresh cached price history",
	Long: `Re-fetch price history from live sources for the given tickers, or for
every ticker in the ESG universe when none are given, and save the
refreshed series to the price cache.`,
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		common.SetupCache()
		log.Info().Msg("initialized logging")

		ctx := context.Background()

		if viper.GetString("database.url") != "" {
			if err := database.Connect(ctx); err != nil {
				log.Fatal().Err(err).Msg("database connection failed")
			}
		}

		manager := data.NewDefaultManager()

		tickers := args
		if len(tickers) == 0 {
			u, err := universe.Load(ctx)
			if err != nil {
				log.Fatal().Err(err).Msg("could not load esg universe")
			}
			tickers = u.Tickers()
		}

		if err := messenger.Initialize(); err != nil {
			log.Error().Err(err).Msg("could not initialize messenger")
		}
		defer messenger.Close()

		n := refreshPrices(ctx, manager, tickers)
		if err := messenger.PublishPricesRefreshed(n); err != nil {
			log.Warn().Err(err).Msg("could not publish price refresh event")
		}
	},
}

func refreshPrices(ctx context.Context, manager *data.Manager, tickers []string) int {
	n := manager.Refresh(ctx, tickers)
	log.Info().Int("NumTickers", n).Int("Requested", len(tickers)).Msg("refreshed price cache")
	return n
}
