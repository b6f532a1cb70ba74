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

package data_test

import (
	"context"
	"errors"
	"time"

	"github.com/greenfolio/gf-api/common"
	"github.com/greenfolio/gf-api/data"
	"github.com/spf13/viper"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// priceSeriesFixture builds a series of n consecutive weekdays starting
// 2022-06-06 with closes 100, 101, ...
func priceSeriesFixture(ticker string, n int) *data.PriceSeries {
	nyc := common.GetTimezone()
	series := &data.PriceSeries{
		Ticker: ticker,
		Dates:  make([]time.Time, 0, n),
		Close:  make([]float64, 0, n),
	}

	curr := time.Date(2022, 6, 6, 16, 0, 0, 0, nyc)
	for idx := 0; idx < n; idx++ {
		for curr.Weekday() == time.Saturday || curr.Weekday() == time.Sunday {
			curr = curr.AddDate(0, 0, 1)
		}
		series.Dates = append(series.Dates, curr)
		series.Close = append(series.Close, 100+float64(idx))
		curr = curr.AddDate(0, 0, 1)
	}

	return series
}

// scriptedSource returns a fixed result and counts how often it is asked.
type scriptedSource struct {
	name   string
	series *data.PriceSeries
	err    error
	calls  int
}

func (source *scriptedSource) SourceName() string {
	return source.name
}

func (source *scriptedSource) FetchPrices(_ context.Context, _ string, _ string, _ string) (*data.PriceSeries, error) {
	source.calls++
	return source.series, source.err
}

var _ = Describe("Manager", func() {
	var (
		alpha *scriptedSource
		beta  *scriptedSource
		store *data.CacheStore
		ctx   context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = data.NewCacheStore(GinkgoT().TempDir())
		alpha = &scriptedSource{name: "alpha"}
		beta = &scriptedSource{name: "beta"}

		viper.Set("prices.max_parallel", 1)
		viper.Set("prices.timeout", 10*time.Second)
	})

	Describe("FetchTicker in live-first mode", func() {
		It("accepts the first source that clears the minimum row gate", func() {
			alpha.series = priceSeriesFixture("GF", 130)
			beta.series = priceSeriesFixture("GF", 200)
			manager := data.NewManager(store, alpha, beta)

			series, attempts := manager.FetchTicker(ctx, "GF", "2y", "1d", data.ModeLiveFirst, 120)
			Expect(series).NotTo(BeNil())
			Expect(series.Len()).To(Equal(130))

			Expect(alpha.calls).To(Equal(1))
			Expect(beta.calls).To(Equal(0))

			Expect(attempts).To(HaveLen(1))
			Expect(attempts[0].Source).To(Equal("alpha"))
			Expect(attempts[0].Outcome).To(Equal(data.OutcomeOK))
			Expect(attempts[0].Rows).To(Equal(130))
		})

		It("falls through a thin source to the next one", func() {
			alpha.series = priceSeriesFixture("GF", 50)
			beta.series = priceSeriesFixture("GF", 130)
			manager := data.NewManager(store, alpha, beta)

			series, attempts := manager.FetchTicker(ctx, "GF", "2y", "1d", data.ModeLiveFirst, 120)
			Expect(series.Len()).To(Equal(130))

			Expect(attempts).To(HaveLen(2))
			Expect(attempts[0].Outcome).To(Equal(data.OutcomeThin))
			Expect(attempts[1].Outcome).To(Equal(data.OutcomeOK))
		})

		It("accepts the largest thin result when nothing clears the gate", func() {
			alpha.series = priceSeriesFixture("GF", 50)
			beta.series = priceSeriesFixture("GF", 80)
			manager := data.NewManager(store, alpha, beta)

			series, attempts := manager.FetchTicker(ctx, "GF", "2y", "1d", data.ModeLiveFirst, 120)
			Expect(series.Len()).To(Equal(80))

			Expect(attempts).To(HaveLen(3))
			Expect(attempts[0].Outcome).To(Equal(data.OutcomeThin))
			Expect(attempts[1].Outcome).To(Equal(data.OutcomeThin))
			Expect(attempts[2].Source).To(Equal(data.SourceCache))
			Expect(attempts[2].Outcome).To(Equal(data.OutcomeEmpty))
		})

		It("falls back to the cache when live sources fail", func() {
			Expect(store.Save(priceSeriesFixture("GF", 90))).To(Succeed())
			alpha.err = errors.New("connection refused")
			manager := data.NewManager(store, alpha, beta)

			series, attempts := manager.FetchTicker(ctx, "GF", "2y", "1d", data.ModeLiveFirst, 120)
			Expect(series).NotTo(BeNil())
			Expect(series.Len()).To(Equal(90))

			Expect(attempts).To(HaveLen(3))
			Expect(attempts[0].Outcome).To(Equal(data.OutcomeFailed))
			Expect(attempts[0].Err).To(HaveOccurred())
			Expect(attempts[1].Outcome).To(Equal(data.OutcomeEmpty))
			Expect(attempts[2].Source).To(Equal(data.SourceCache))
			Expect(attempts[2].Outcome).To(Equal(data.OutcomeThin))
		})

		It("returns nil when every source comes up empty", func() {
			alpha.err = errors.New("boom")
			manager := data.NewManager(store, alpha, beta)

			series, attempts := manager.FetchTicker(ctx, "GF", "2y", "1d", data.ModeLiveFirst, 120)
			Expect(series).To(BeNil())
			Expect(attempts).To(HaveLen(3))
		})

		It("treats exactly the minimum row count as acceptable", func() {
			alpha.series = priceSeriesFixture("GF", 120)
			manager := data.NewManager(store, alpha, beta)

			series, attempts := manager.FetchTicker(ctx, "GF", "2y", "1d", data.ModeLiveFirst, 120)
			Expect(series.Len()).To(Equal(120))
			Expect(attempts[0].Outcome).To(Equal(data.OutcomeOK))
		})

		It("treats one row short of the minimum as thin", func() {
			alpha.series = priceSeriesFixture("GF", 119)
			manager := data.NewManager(store, alpha, beta)

			_, attempts := manager.FetchTicker(ctx, "GF", "2y", "1d", data.ModeLiveFirst, 120)
			Expect(attempts[0].Outcome).To(Equal(data.OutcomeThin))
		})
	})

	Describe("FetchTicker in cache-first mode", func() {
		It("serves from the cache without consulting live sources", func() {
			Expect(store.Save(priceSeriesFixture("GF", 130))).To(Succeed())
			manager := data.NewManager(store, alpha, beta)

			series, attempts := manager.FetchTicker(ctx, "GF", "2y", "1d", data.ModeCacheFirst, 120)
			Expect(series.Len()).To(Equal(130))

			Expect(alpha.calls).To(Equal(0))
			Expect(beta.calls).To(Equal(0))

			Expect(attempts).To(HaveLen(1))
			Expect(attempts[0].Source).To(Equal(data.SourceCache))
			Expect(attempts[0].Outcome).To(Equal(data.OutcomeOK))
		})

		It("falls through a thin cache to the live sources", func() {
			Expect(store.Save(priceSeriesFixture("GF", 50))).To(Succeed())
			alpha.series = priceSeriesFixture("GF", 130)
			manager := data.NewManager(store, alpha, beta)

			series, attempts := manager.FetchTicker(ctx, "GF", "2y", "1d", data.ModeCacheFirst, 120)
			Expect(series.Len()).To(Equal(130))

			Expect(attempts).To(HaveLen(2))
			Expect(attempts[0].Source).To(Equal(data.SourceCache))
			Expect(attempts[0].Outcome).To(Equal(data.OutcomeThin))
			Expect(attempts[1].Source).To(Equal("alpha"))
			Expect(attempts[1].Outcome).To(Equal(data.OutcomeOK))
		})
	})

	Describe("persistence of accepted results", func() {
		It("writes the accepted series to the cache store", func() {
			alpha.series = priceSeriesFixture("GF", 130)
			manager := data.NewManager(store, alpha, beta)

			_, _ = manager.FetchTicker(ctx, "GF", "2y", "1d", data.ModeLiveFirst, 120)

			loaded, err := store.Load("GF")
			Expect(err).To(BeNil())
			Expect(loaded.Len()).To(Equal(130))
		})

		It("persists a thin fallback result as well", func() {
			alpha.series = priceSeriesFixture("GF", 80)
			manager := data.NewManager(store, alpha, beta)

			_, _ = manager.FetchTicker(ctx, "GF", "2y", "1d", data.ModeLiveFirst, 120)

			loaded, err := store.Load("GF")
			Expect(err).To(BeNil())
			Expect(loaded.Len()).To(Equal(80))
		})
	})

	Describe("FetchSeries", func() {
		It("keys results by normalized ticker and skips dataless tickers", func() {
			alpha.series = priceSeriesFixture("GF", 130)
			manager := data.NewManager(store, alpha, beta)

			res := manager.FetchSeries(ctx, []string{"gf", "msft"}, "2y", "1d", data.ModeLiveFirst, 120)
			Expect(res).To(HaveKey("GF"))
			Expect(res).To(HaveKey("MSFT"))
			Expect(res["GF"].Len()).To(Equal(130))
		})

		It("excludes tickers where every source came up empty", func() {
			manager := data.NewManager(store, alpha, beta)

			res := manager.FetchSeries(ctx, []string{"GF"}, "2y", "1d", data.ModeLiveFirst, 120)
			Expect(res).To(BeEmpty())
		})
	})
})
