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
	"fmt"
	"strconv"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/greenfolio/gf-api/common"
	"github.com/greenfolio/gf-api/data"
	"github.com/greenfolio/gf-api/database"
	"github.com/greenfolio/gf-api/portfolio"
)

var backtestLookback int

func init() {
	backtestCmd.Flags().IntVar(&backtestLookback, "lookback", 0, "Trading days of history to evaluate (default prices.lookback_days)")
	rootCmd.AddCommand(backtestCmd)
}

var backtestCmd = &cobra.Command{
	Use:        "backtest [flags] TICKER=WEIGHT [TICKER=WEIGHT...]",
	Short:      "Evaluate a fixed allocation over cached price history",
	Args:       cobra.MinimumNArgs(1),
	ArgAliases: []string{"TICKER=WEIGHT"},
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		common.SetupCache()

		ctx := context.Background()

		if viper.GetString("database.url") != "" {
			if err := database.Connect(ctx); err != nil {
				log.Fatal().Err(err).Msg("database connection failed")
			}
		}

		weights := make(map[string]float64, len(args))
		for _, arg := range args {
			parts := strings.Split(arg, "=")
			if len(parts) != 2 {
				log.Fatal().Str("InputStr", arg).Msg("holdings must be specified as TICKER=WEIGHT")
			}
			weight, err := strconv.ParseFloat(parts[1], 64)
			if err != nil {
				log.Fatal().Err(err).Str("InputStr", arg).Msg("could not parse weight")
			}
			weights[strings.ToUpper(strings.TrimSpace(parts[0]))] = weight
		}

		tickers := make([]string, 0, len(weights))
		for ticker := range weights {
			tickers = append(tickers, ticker)
		}

		manager := data.NewDefaultManager()

		request := manager.Prices(tickers...)
		if backtestLookback > 0 {
			request = request.Lookback(backtestLookback)
		}

		matrix, err := request.Matrix(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not assemble price matrix")
		}

		perf, err := portfolio.HoldingPeriod(weights, matrix)
		if err != nil {
			log.Fatal().Err(err).Msg("could not compute holding period performance")
		}

		start := perf.Dates[0]
		end := perf.Dates[len(perf.Dates)-1]

		fmt.Printf("Period: %s to %s (%d trading days)\n\n", start.Format("2006-01-02"), end.Format("2006-01-02"), len(perf.Dates))
		fmt.Println(asciigraph.Plot(perf.Values, asciigraph.Height(10), asciigraph.Caption("Value of $10,000 invested")))
		fmt.Println()
		fmt.Printf("Total Return:          %.2f%%\n", perf.TotalReturn*100)
		fmt.Printf("Annualized Volatility: %.2f%%\n", perf.AnnualizedVolatility*100)
		fmt.Printf("Max Drawdown:          %.2f%%\n", perf.MaxDrawdown*100)
	},
}
