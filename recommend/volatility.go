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

package recommend

import (
	"math"
	"sort"

	"github.com/greenfolio/gf-api/dataframe"
)

const tradingDaysPerYear = 252

// Fallback cut points used when the volatility distribution is empty.
const (
	defaultLowThreshold  = 0.20
	defaultHighThreshold = 0.40
)

// Thresholds are the volatility cut points between the Low, Medium, and
// High risk buckets. Recomputed on every run, never persisted, so risk is
// always relative to the current candidate set.
type Thresholds struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// VolatilityThresholds derives the 33rd and 66th percentile cut points
// from the observed volatility distribution. An empty distribution falls
// back to fixed defaults so categorization never fails on an empty
// universe.
func VolatilityThresholds(volatility map[string]float64) Thresholds {
	values := make([]float64, 0, len(volatility))
	for _, v := range volatility {
		if !math.IsNaN(v) {
			values = append(values, v)
		}
	}

	if len(values) == 0 {
		return Thresholds{Low: defaultLowThreshold, High: defaultHighThreshold}
	}

	sort.Float64s(values)
	return Thresholds{
		Low:  percentile(values, 0.33),
		High: percentile(values, 0.66),
	}
}

// percentile computes the p-th quantile of sorted with linear
// interpolation between the two nearest order statistics.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}

	pos := p * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}

	frac := pos - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

// annualizedVolatility converts the daily return frame into annualized
// volatility per ticker: sample standard deviation scaled by √252.
// Tickers with fewer than two returns are omitted.
func annualizedVolatility(returns *dataframe.DataFrame) map[string]float64 {
	volatility := make(map[string]float64, len(returns.ColNames))
	for ticker, stdDev := range returns.ColStdDev() {
		if math.IsNaN(stdDev) {
			continue
		}
		volatility[ticker] = stdDev * math.Sqrt(tradingDaysPerYear)
	}
	return volatility
}

// annualizedReturns converts the daily return frame into an annualized
// mean return per ticker, the expected-return input to the allocator.
func annualizedReturns(returns *dataframe.DataFrame) map[string]float64 {
	annualized := make(map[string]float64, len(returns.ColNames))
	for ticker, mean := range returns.ColMean() {
		if math.IsNaN(mean) {
			continue
		}
		annualized[ticker] = mean * tradingDaysPerYear
	}
	return annualized
}
