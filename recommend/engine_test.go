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

package recommend_test

import (
	"context"
	"time"

	"github.com/spf13/viper"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/greenfolio/gf-api/common"
	"github.com/greenfolio/gf-api/data"
	"github.com/greenfolio/gf-api/recommend"
	"github.com/greenfolio/gf-api/sentiment"
	"github.com/greenfolio/gf-api/universe"
)

// swingSource serves synthetic series whose daily returns alternate
// +swing / -swing, giving each ticker a controlled realized volatility.
type swingSource struct {
	swings map[string]float64
	rows   int
}

func (source *swingSource) SourceName() string {
	return "swing"
}

func (source *swingSource) FetchPrices(_ context.Context, ticker string, _ string, _ string) (*data.PriceSeries, error) {
	swing, ok := source.swings[ticker]
	if !ok {
		return nil, data.ErrNoCoverage
	}

	nyc := common.GetTimezone()
	day := time.Date(2021, 6, 1, 16, 0, 0, 0, nyc)
	series := &data.PriceSeries{
		Ticker: ticker,
		Dates:  make([]time.Time, 0, source.rows),
		Close:  make([]float64, 0, source.rows),
	}

	price := 100.0
	for idx := 0; idx < source.rows; idx++ {
		for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			day = day.AddDate(0, 0, 1)
		}
		series.Dates = append(series.Dates, day)
		series.Close = append(series.Close, price)

		move := swing
		if idx%2 == 1 {
			move = -swing
		}
		price *= 1 + move
		day = day.AddDate(0, 0, 1)
	}

	return series, nil
}

var _ = Describe("Engine", func() {
	var (
		engine *recommend.Engine
		ctx    context.Context
	)

	BeforeEach(func() {
		viper.Set("prices.max_parallel", 1)
		viper.Set("prices.timeout", 10*time.Second)
		viper.Set("prices.min_rows", 10)
		viper.Set("prices.lookback_days", 252)
		viper.Set("prices.mode", data.ModeLiveFirst)
		viper.Set("prices.forward_fill", false)

		source := &swingSource{
			rows: 260,
			swings: map[string]float64{
				"AAA": 0.005,
				"BBB": 0.02,
				"CCC": 0.05,
			},
		}

		esg := universe.New(
			&universe.Record{Ticker: "AAA", Name: "Alpha", Sector: "Technology", Industry: "Software", ESGScore: 15},
			&universe.Record{Ticker: "BBB", Name: "Beta", Sector: "Energy", Industry: "Oil & Gas", ESGScore: 25},
			&universe.Record{Ticker: "CCC", Name: "Gamma", Sector: "Energy", Industry: "Coal", ESGScore: 35},
			&universe.Record{Ticker: "DDD", Name: "Delta", Sector: "Technology", Industry: "Hardware", ESGScore: 18},
		)

		labels := map[string]sentiment.Label{
			"BBB": sentiment.Positive,
			"CCC": sentiment.Negative,
		}

		manager := data.NewManager(data.NewCacheStore(GinkgoT().TempDir()), source)
		engine = recommend.NewEngine(esg, labels, manager)
		ctx = context.Background()
	})

	Context("with a low esg, low risk profile", func() {
		var (
			recommendations []*recommend.Recommendation
			stats           *recommend.RunStats
		)

		BeforeEach(func() {
			prefs := &recommend.Preferences{ESG: recommend.Low, Risk: recommend.Low}
			recommendations, stats = engine.Classify(ctx, prefs)
		})

		It("excludes tickers without price data", func() {
			Expect(recommendations).To(HaveLen(3))
			for _, recommendation := range recommendations {
				Expect(recommendation.Ticker).NotTo(Equal("DDD"))
			}
		})

		It("derives relative risk thresholds from the candidate set", func() {
			Expect(stats.Thresholds.Low).To(BeNumerically(">", stats.Volatility["AAA"]))
			Expect(stats.Thresholds.Low).To(BeNumerically("<", stats.Volatility["BBB"]))
			Expect(stats.Thresholds.High).To(BeNumerically(">", stats.Volatility["BBB"]))
			Expect(stats.Thresholds.High).To(BeNumerically("<", stats.Volatility["CCC"]))
		})

		It("annualizes the realized volatility", func() {
			Expect(stats.Volatility["AAA"]).To(BeNumerically("~", 0.079, 0.01))
			Expect(stats.Volatility["BBB"]).To(BeNumerically("~", 0.317, 0.02))
			Expect(stats.Volatility["CCC"]).To(BeNumerically("~", 0.794, 0.05))
		})

		It("tiers the exact match green and the rest red", func() {
			byTicker := make(map[string]*recommend.Recommendation, len(recommendations))
			for _, recommendation := range recommendations {
				byTicker[recommendation.Ticker] = recommendation
			}

			Expect(byTicker["AAA"].ESGCategory).To(Equal(recommend.Low))
			Expect(byTicker["AAA"].RiskCategory).To(Equal(recommend.Low))
			Expect(byTicker["AAA"].Tier).To(Equal(recommend.TierGreen))

			Expect(byTicker["BBB"].ESGCategory).To(Equal(recommend.Medium))
			Expect(byTicker["BBB"].RiskCategory).To(Equal(recommend.Medium))
			Expect(byTicker["BBB"].Tier).To(Equal(recommend.TierRed))

			Expect(byTicker["CCC"].ESGCategory).To(Equal(recommend.High))
			Expect(byTicker["CCC"].RiskCategory).To(Equal(recommend.High))
			Expect(byTicker["CCC"].Tier).To(Equal(recommend.TierRed))
		})

		It("carries sentiment labels with a neutral default", func() {
			byTicker := make(map[string]*recommend.Recommendation, len(recommendations))
			for _, recommendation := range recommendations {
				byTicker[recommendation.Ticker] = recommendation
			}

			Expect(byTicker["AAA"].Sentiment).To(Equal(sentiment.Neutral))
			Expect(byTicker["BBB"].Sentiment).To(Equal(sentiment.Positive))
			Expect(byTicker["CCC"].Sentiment).To(Equal(sentiment.Negative))
		})
	})

	Context("with a low esg, medium risk profile", func() {
		It("applies the sentiment gate to partial matches", func() {
			prefs := &recommend.Preferences{ESG: recommend.Low, Risk: recommend.Medium}
			recommendations := engine.Recommend(ctx, prefs)

			byTicker := make(map[string]*recommend.Recommendation, len(recommendations))
			for _, recommendation := range recommendations {
				byTicker[recommendation.Ticker] = recommendation
			}

			Expect(byTicker["AAA"].Tier).To(Equal(recommend.TierYellow))
			Expect(byTicker["BBB"].Tier).To(Equal(recommend.TierYellow))
			Expect(byTicker["CCC"].Tier).To(Equal(recommend.TierRed))
		})
	})

	Context("with an industry filter", func() {
		It("restricts the candidate set before tiering", func() {
			prefs := &recommend.Preferences{ESG: recommend.Low, Risk: recommend.Low, Industry: "energy"}
			recommendations := engine.Recommend(ctx, prefs)

			Expect(recommendations).To(HaveLen(2))
			for _, recommendation := range recommendations {
				Expect(recommendation.Industry).To(BeElementOf("Oil & Gas", "Coal"))
			}
		})

		It("returns the sentinel when the filter matches nothing", func() {
			prefs := &recommend.Preferences{ESG: recommend.Low, Risk: recommend.Low, Industry: "banking"}
			recommendations := engine.Recommend(ctx, prefs)

			Expect(recommend.IsSentinel(recommendations)).To(BeTrue())
			Expect(recommendations[0].Ticker).To(Equal(recommend.NoSuitableMatch))
		})
	})

	Context("when no candidate has price data", func() {
		It("returns the sentinel with fallback thresholds", func() {
			empty := data.NewManager(data.NewCacheStore(GinkgoT().TempDir()), &swingSource{rows: 0, swings: map[string]float64{}})
			noData := recommend.NewEngine(universe.New(
				&universe.Record{Ticker: "ZZZ", ESGScore: 10},
			), nil, empty)

			prefs := &recommend.Preferences{ESG: recommend.Low, Risk: recommend.Low}
			recommendations, stats := noData.Classify(ctx, prefs)

			Expect(recommend.IsSentinel(recommendations)).To(BeTrue())
			Expect(stats.Thresholds.Low).To(Equal(0.20))
			Expect(stats.Thresholds.High).To(Equal(0.40))
		})
	})
})
