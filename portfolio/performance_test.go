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

package portfolio_test

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/greenfolio/gf-api/dataframe"
	"github.com/greenfolio/gf-api/portfolio"
)

var _ = Describe("HoldingPeriod", func() {
	var (
		dates  []time.Time
		prices *dataframe.DataFrame
	)

	BeforeEach(func() {
		tz, err := time.LoadLocation("America/New_York")
		Expect(err).To(BeNil())
		dates = []time.Time{
			time.Date(2021, 6, 1, 16, 0, 0, 0, tz),
			time.Date(2021, 6, 2, 16, 0, 0, 0, tz),
			time.Date(2021, 6, 3, 16, 0, 0, 0, tz),
		}
		prices = &dataframe.DataFrame{
			Dates:    dates,
			ColNames: []string{"AAA", "BBB"},
			Vals: [][]float64{
				{100, 110, 99},
				{100, 90, 99},
			},
		}
	})

	It("holds a flat value when gains and losses offset", func() {
		perf, err := portfolio.HoldingPeriod(map[string]float64{"AAA": .5, "BBB": .5}, prices)
		Expect(err).To(BeNil())

		Expect(perf.Dates).To(Equal(dates))
		Expect(perf.Values).To(HaveLen(3))
		for _, value := range perf.Values {
			Expect(value).To(BeNumerically("~", 10_000, 1e-6))
		}
		Expect(perf.TotalReturn).To(BeNumerically("~", 0, 1e-9))
		Expect(perf.AnnualizedVolatility).To(BeNumerically("~", 0, 1e-9))
		Expect(perf.MaxDrawdown).To(BeNumerically("~", 0, 1e-9))
	})

	It("tracks a single holding through a gain and a loss", func() {
		perf, err := portfolio.HoldingPeriod(map[string]float64{"AAA": 1}, prices)
		Expect(err).To(BeNil())

		Expect(perf.Values[0]).To(Equal(10_000.0))
		Expect(perf.Values[1]).To(BeNumerically("~", 11_000, 1e-6))
		Expect(perf.Values[2]).To(BeNumerically("~", 9_900, 1e-6))

		Expect(perf.TotalReturn).To(BeNumerically("~", -.01, 1e-9))
		Expect(perf.MaxDrawdown).To(BeNumerically("~", -.1, 1e-9))
		// daily returns of +10% and -10% have a sample std dev of sqrt(.02)
		Expect(perf.AnnualizedVolatility).To(BeNumerically("~", math.Sqrt(.02*252), 1e-9))
	})

	It("keeps the weight of an unknown ticker in cash", func() {
		perf, err := portfolio.HoldingPeriod(map[string]float64{"AAA": .5, "ZZZ": .5}, prices)
		Expect(err).To(BeNil())

		Expect(perf.Values[1]).To(BeNumerically("~", 10_500, 1e-6))
		Expect(perf.Values[2]).To(BeNumerically("~", 9_975, 1e-6))
		Expect(perf.TotalReturn).To(BeNumerically("~", -.0025, 1e-9))
	})

	It("ignores zero weights", func() {
		perf, err := portfolio.HoldingPeriod(map[string]float64{"AAA": 1, "BBB": 0}, prices)
		Expect(err).To(BeNil())
		Expect(perf.Values[1]).To(BeNumerically("~", 11_000, 1e-6))
	})

	It("reports no volatility for a single period", func() {
		short := &dataframe.DataFrame{
			Dates:    dates[:2],
			ColNames: []string{"AAA"},
			Vals:     [][]float64{{100, 110}},
		}

		perf, err := portfolio.HoldingPeriod(map[string]float64{"AAA": 1}, short)
		Expect(err).To(BeNil())
		Expect(perf.TotalReturn).To(BeNumerically("~", .1, 1e-9))
		Expect(perf.AnnualizedVolatility).To(Equal(0.0))
	})

	DescribeTable("errors when the allocation has no price coverage",
		func(weights map[string]float64, prices *dataframe.DataFrame) {
			_, err := portfolio.HoldingPeriod(weights, prices)
			Expect(err).To(MatchError(portfolio.ErrNoPrices))
		},

		Entry("nil price matrix", map[string]float64{"AAA": 1}, nil),
		Entry("empty price matrix", map[string]float64{"AAA": 1}, &dataframe.DataFrame{}),
		Entry("no overlapping tickers", map[string]float64{"ZZZ": 1}, &dataframe.DataFrame{
			Dates:    []time.Time{time.Date(2021, 6, 1, 16, 0, 0, 0, time.UTC)},
			ColNames: []string{"AAA"},
			Vals:     [][]float64{{100}},
		}),
		Entry("all weights zero", map[string]float64{"AAA": 0}, &dataframe.DataFrame{
			Dates:    []time.Time{time.Date(2021, 6, 1, 16, 0, 0, 0, time.UTC)},
			ColNames: []string{"AAA"},
			Vals:     [][]float64{{100}},
		}),
	)
})
