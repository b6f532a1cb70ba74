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
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/greenfolio/gf-api/common"
	"github.com/greenfolio/gf-api/database"
	"github.com/greenfolio/gf-api/runlog"
)

var runsLimit int

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 10, "Number of runs to list")
	rootCmd.AddCommand(runsCmd)
}

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "Inspect logged recommendation runs",
	Long: `List recent recommendation runs from the run log, or print the full
stored result for a single run ID.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()

		ctx := context.Background()

		if err := database.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}

		runs := runlog.NewRepository()

		if len(args) == 1 {
			runID, err := uuid.Parse(args[0])
			if err != nil {
				log.Fatal().Err(err).Str("InputStr", args[0]).Msg("could not parse run id")
			}

			row, err := runs.Get(ctx, runID)
			if err != nil {
				log.Fatal().Err(err).Str("RunID", runID.String()).Msg("could not load run")
			}

			fmt.Printf("Run:      %s\n", row.ID)
			fmt.Printf("Created:  %s\n", row.CreatedAt.Format(time.RFC3339))
			if row.Query != "" {
				fmt.Printf("Query:    %s\n", row.Query)
			}
			fmt.Printf("ESG:      %s\n", row.ESGPref)
			fmt.Printf("Risk:     %s\n", row.RiskPref)
			if row.Industry != "" {
				fmt.Printf("Industry: %s\n", row.Industry)
			}
			fmt.Printf("Tickers:  %s\n", strings.Join(row.Tickers, ", "))
			fmt.Printf("Fitness:  %.4f\n", row.Fitness)
			fmt.Println()

			var pretty bytes.Buffer
			if err := json.Indent(&pretty, row.Payload, "", "  "); err != nil {
				fmt.Println(string(row.Payload))
			} else {
				fmt.Println(pretty.String())
			}
			return
		}

		rows, err := runs.Recent(ctx, runsLimit)
		if err != nil {
			log.Fatal().Err(err).Msg("could not list runs")
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"ID", "Created", "Query", "ESG", "Risk", "Tickers", "Fitness"})
		for _, row := range rows {
			table.Append([]string{
				row.ID.String(),
				row.CreatedAt.Format("2006-01-02 15:04"),
				row.Query,
				row.ESGPref,
				row.RiskPref,
				strconv.Itoa(len(row.Tickers)),
				fmt.Sprintf("%.4f", row.Fitness),
			})
		}
		table.Render()
	},
}
