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

package portfolio

import (
	"errors"
	"math"
	"time"

	"github.com/greenfolio/gf-api/dataframe"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrNoPrices = errors.New("price matrix has no rows covering the allocation")
)

const (
	startingValue      = 10_000.0
	tradingDaysPerYear = 252
)

// Performance summarizes how an allocation would have fared over the
// price matrix window, starting from a nominal 10,000 investment.
// MaxDrawdown is the deepest peak-to-trough return and is zero or
// negative.
type Performance struct {
	Dates                []time.Time `json:"dates"`
	Values               []float64   `json:"values"`
	TotalReturn          float64     `json:"totalReturn"`
	AnnualizedVolatility float64     `json:"annualizedVolatility"`
	MaxDrawdown          float64     `json:"maxDrawdown"`
}

// HoldingPeriod computes the value curve of weights held over the price
// matrix. Weights without a matching column contribute nothing (their
// slice of the portfolio sits in cash); the curve starts at 10,000 on the
// first matrix date.
func HoldingPeriod(weights map[string]float64, prices *dataframe.DataFrame) (*Performance, error) {
	if prices == nil || prices.Len() == 0 {
		return nil, ErrNoPrices
	}

	type holding struct {
		colIdx int
		weight float64
	}

	holdings := make([]holding, 0, len(weights))
	for ticker, weight := range weights {
		if weight == 0 {
			continue
		}
		if colIdx := prices.ColIndex(ticker); colIdx >= 0 {
			holdings = append(holdings, holding{colIdx: colIdx, weight: weight})
		}
	}
	if len(holdings) == 0 {
		return nil, ErrNoPrices
	}

	nRows := prices.Len()
	dailyReturns := make([]float64, 0, nRows-1)
	for rowIdx := 1; rowIdx < nRows; rowIdx++ {
		var portfolioReturn float64
		for _, h := range holdings {
			prev := prices.Vals[h.colIdx][rowIdx-1]
			curr := prices.Vals[h.colIdx][rowIdx]
			portfolioReturn += h.weight * (curr/prev - 1)
		}
		dailyReturns = append(dailyReturns, portfolioReturn)
	}

	perf := &Performance{
		Dates:  make([]time.Time, nRows),
		Values: make([]float64, nRows),
	}
	copy(perf.Dates, prices.Dates)

	value := startingValue
	peak := startingValue
	perf.Values[0] = value
	for idx, dailyReturn := range dailyReturns {
		value *= 1 + dailyReturn
		perf.Values[idx+1] = value

		if value > peak {
			peak = value
		}
		if drawdown := value/peak - 1; drawdown < perf.MaxDrawdown {
			perf.MaxDrawdown = drawdown
		}
	}

	perf.TotalReturn = value/startingValue - 1
	if len(dailyReturns) >= 2 {
		perf.AnnualizedVolatility = stat.StdDev(dailyReturns, nil) * math.Sqrt(tradingDaysPerYear)
	}

	return perf, nil
}
