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
	"os"
	"strconv"

	"github.com/greenfolio/gf-api/common"
	"github.com/greenfolio/gf-api/data"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var purgeAll bool
var purgeList bool

func init() {
	purgeCmd.Flags().BoolVar(&purgeAll, "all", false, "Purge every cached ticker")
	purgeCmd.Flags().BoolVar(&purgeList, "list", false, "List cache contents instead of deleting")
	rootCmd.AddCommand(purgeCmd)
}

var purgeCmd = &cobra.Command{
	Use:   "purge [tickers...]",
	Short: "Delete cached price history",
	Long: `Delete the cached price files for the given tickers. With --all every
cached ticker is removed; with --list the cache contents are printed and
nothing is deleted.`,
	Run: func(_ *cobra.Command, args []string) {
		common.SetupLogging()
		common.SetupCache()

		store := data.NewCacheStore(viper.GetString("prices.cache_dir"))

		if purgeList {
			files, err := store.List()
			if err != nil {
				log.Fatal().Err(err).Msg("could not list price cache")
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Ticker", "Rows", "Size", "Modified", "Checksum"})
			for _, cf := range files {
				table.Append([]string{
					cf.Ticker,
					strconv.Itoa(cf.Rows),
					strconv.FormatInt(cf.Size, 10),
					cf.ModTime.Format("2006-01-02 15:04"),
					cf.Checksum,
				})
			}
			table.Render()
			return
		}

		tickers := args
		if purgeAll {
			files, err := store.List()
			if err != nil {
				log.Fatal().Err(err).Msg("could not list price cache")
			}
			tickers = make([]string, 0, len(files))
			for _, cf := range files {
				tickers = append(tickers, cf.Ticker)
			}
		}

		if len(tickers) == 0 {
			log.Warn().Msg("nothing to purge; pass tickers or --all")
			return
		}

		for _, ticker := range tickers {
			subLog := log.With().Str("Ticker", ticker).Logger()
			if err := store.Delete(ticker); err != nil {
				subLog.Error().Err(err).Msg("could not delete cached prices")
				continue
			}
			subLog.Info().Msg("deleted cached prices")
		}
	},
}
