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

// Package report renders the plain text narrative of a recommendation
// run: tier tallies, the standout picks with their reasons, the suggested
// allocation, and how that allocation would have fared over the lookback
// window. The CLI prints the narrative directly and the API returns it
// alongside the structured payload.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"

	"github.com/greenfolio/gf-api/portfolio"
	"github.com/greenfolio/gf-api/recommend"
)

const sparklineHeight = 8

// Summary collects the outputs of a recommendation run that the
// narrative covers. Weights and Performance may be empty when the run
// stopped at classification.
type Summary struct {
	Query           string
	Preferences     *recommend.Preferences
	Recommendations []*recommend.Recommendation
	Thresholds      recommend.Thresholds
	Weights         map[string]float64
	Fitness         float64
	Performance     *portfolio.Performance
}

// Narrative renders the report for a completed run.
func Narrative(summary *Summary) string {
	sb := &strings.Builder{}

	sb.WriteString("ESG Recommendation Report\n")
	sb.WriteString("=========================\n\n")

	if summary.Query != "" {
		fmt.Fprintf(sb, "Query: %s\n", summary.Query)
	}
	if prefs := summary.Preferences; prefs != nil {
		fmt.Fprintf(sb, "Preferences: esg=%s risk=%s", prefs.ESG, prefs.Risk)
		if prefs.Industry != "" {
			fmt.Fprintf(sb, " industry=%s", prefs.Industry)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if recommend.IsSentinel(summary.Recommendations) {
		sb.WriteString("No suitable matches were found for the requested preferences.\n")
		sb.WriteString("Relax the industry filter or widen the esg and risk targets.\n")
		return sb.String()
	}

	counts := recommend.TierCounts(summary.Recommendations)
	fmt.Fprintf(sb, "%d candidates evaluated: %d green, %d yellow, %d red.\n",
		len(summary.Recommendations), counts[recommend.TierGreen], counts[recommend.TierYellow], counts[recommend.TierRed])
	fmt.Fprintf(sb, "Volatility bands: low risk <= %s, medium risk <= %s, high risk above.\n\n",
		formatPercent(summary.Thresholds.Low), formatPercent(summary.Thresholds.High))

	writePicks(sb, summary.Recommendations)
	writeAllocation(sb, summary)
	writePerformance(sb, summary.Performance)

	return sb.String()
}

// writePicks lists green and yellow recommendations with the reason for
// their tier, best esg score first within each tier.
func writePicks(sb *strings.Builder, recs []*recommend.Recommendation) {
	picks := make([]*recommend.Recommendation, 0, len(recs))
	for _, rec := range recs {
		if rec.Tier == recommend.TierGreen || rec.Tier == recommend.TierYellow {
			picks = append(picks, rec)
		}
	}
	if len(picks) == 0 {
		sb.WriteString("No green or yellow candidates; every match failed the preference screen.\n\n")
		return
	}

	sort.SliceStable(picks, func(i, j int) bool {
		if picks[i].Tier != picks[j].Tier {
			return picks[i].Tier == recommend.TierGreen
		}
		return picks[i].ESGScore < picks[j].ESGScore
	})

	sb.WriteString("Top Picks\n")
	sb.WriteString("---------\n")
	for _, pick := range picks {
		fmt.Fprintf(sb, "%-6s [%s] esg %.1f (%s) | volatility %s (%s risk) | sentiment %s\n",
			pick.Ticker, pick.Tier, pick.ESGScore, pick.ESGCategory,
			formatPercent(pick.Volatility), pick.RiskCategory, pick.Sentiment)
	}
	sb.WriteString("\n")
}

// writeAllocation renders the weight table sorted by weight, heaviest
// first, with the search fitness in the footer.
func writeAllocation(sb *strings.Builder, summary *Summary) {
	if len(summary.Weights) == 0 {
		return
	}

	byTicker := make(map[string]*recommend.Recommendation, len(summary.Recommendations))
	for _, rec := range summary.Recommendations {
		byTicker[rec.Ticker] = rec
	}

	tickers := make([]string, 0, len(summary.Weights))
	for ticker := range summary.Weights {
		tickers = append(tickers, ticker)
	}
	sort.Slice(tickers, func(i, j int) bool {
		if summary.Weights[tickers[i]] != summary.Weights[tickers[j]] {
			return summary.Weights[tickers[i]] > summary.Weights[tickers[j]]
		}
		return tickers[i] < tickers[j]
	})

	sb.WriteString("Suggested Allocation\n")
	sb.WriteString("--------------------\n")

	table := tablewriter.NewWriter(sb)
	table.SetHeader([]string{"Ticker", "Weight", "Tier", "ESG", "Volatility", "Sentiment"})
	table.SetFooter([]string{"", "", "", "", "Fitness", fmt.Sprintf("%.4f", summary.Fitness)})
	table.SetBorder(false)

	for _, ticker := range tickers {
		row := []string{ticker, formatPercent(summary.Weights[ticker]), "", "", "", ""}
		if rec, ok := byTicker[ticker]; ok {
			row[2] = string(rec.Tier)
			row[3] = fmt.Sprintf("%.1f", rec.ESGScore)
			row[4] = formatPercent(rec.Volatility)
			row[5] = string(rec.Sentiment)
		}
		table.Append(row)
	}

	table.Render()
	sb.WriteString("\n")
}

// writePerformance renders the holding period sparkline and summary
// statistics.
func writePerformance(sb *strings.Builder, perf *portfolio.Performance) {
	if perf == nil || len(perf.Values) < 2 {
		return
	}

	sb.WriteString("Holding Period\n")
	sb.WriteString("--------------\n")
	fmt.Fprintf(sb, "%s to %s, starting value 10,000\n\n",
		perf.Dates[0].Format("2006-01-02"), perf.Dates[len(perf.Dates)-1].Format("2006-01-02"))

	sb.WriteString(asciigraph.Plot(perf.Values, asciigraph.Height(sparklineHeight)))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Total return: %s | Annualized volatility: %s | Max drawdown: %s\n",
		formatPercent(perf.TotalReturn), formatPercent(perf.AnnualizedVolatility), formatPercent(perf.MaxDrawdown))
}

func formatPercent(percent float64) string {
	return fmt.Sprintf("%.2f%%", percent*100)
}
