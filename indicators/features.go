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

// Package indicators derives per-ticker trailing feature snapshots from a
// price matrix: short and medium horizon momentum plus a rolling
// volatility estimate, alongside the quality and sentiment scalars used
// by downstream models.
package indicators

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/greenfolio/gf-api/dataframe"
)

const (
	momentumShortWindow = 5
	momentumLongWindow  = 20
	volatilityWindow    = 60

	tradingDaysPerYear = 252
)

// Features is the trailing feature snapshot of a single ticker as of the
// last row of the price matrix.
type Features struct {
	Ticker       string  `json:"ticker"`
	Momentum5    float64 `json:"mom5"`
	Momentum20   float64 `json:"mom20"`
	Volatility60 float64 `json:"vol60"`
	ESGQuality   float64 `json:"esgQuality"`
	SentimentNum float64 `json:"sentimentNum"`
}

// Panel computes the feature snapshot for every column of the price
// matrix. Momentum is the percent change of the close over the window;
// volatility is the sample standard deviation of daily returns over the
// trailing 60 rows, annualized. ESGQuality negates the risk score so that
// larger is better; tickers missing from the score maps get zero.
//
// Tickers without enough history for a complete snapshot are dropped, as
// is the whole panel when the matrix is shorter than the longest window.
func Panel(prices *dataframe.DataFrame, esgScores map[string]float64, sentimentScores map[string]float64) []*Features {
	features := make([]*Features, 0)
	if prices == nil || prices.Len() <= volatilityWindow {
		return features
	}

	mom5 := prices.PctChange(momentumShortWindow)
	mom20 := prices.PctChange(momentumLongWindow)
	vol60 := prices.PctChange(1).RollingStdDev(volatilityWindow)

	lastRow := prices.Len() - 1
	for colIdx, ticker := range prices.ColNames {
		snapshot := &Features{
			Ticker:       ticker,
			Momentum5:    mom5.Vals[colIdx][lastRow],
			Momentum20:   mom20.Vals[colIdx][lastRow],
			Volatility60: vol60.Vals[colIdx][lastRow] * math.Sqrt(tradingDaysPerYear),
			ESGQuality:   -esgScores[ticker],
			SentimentNum: sentimentScores[ticker],
		}

		if math.IsNaN(snapshot.Momentum5) || math.IsNaN(snapshot.Momentum20) || math.IsNaN(snapshot.Volatility60) {
			log.Debug().Str("Ticker", ticker).Msg("dropping ticker with incomplete feature history")
			continue
		}

		features = append(features, snapshot)
	}

	return features
}
