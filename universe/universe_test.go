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

package universe_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/greenfolio/gf-api/universe"
)

var _ = Describe("Universe", func() {
	var subject *universe.Universe

	BeforeEach(func() {
		subject = universe.New(
			&universe.Record{Ticker: " msft ", Name: "Microsoft Corp", Sector: "Technology", Industry: "Software - Infrastructure", ESGScore: 15.2},
			&universe.Record{Ticker: "AAPL", Name: "Apple Inc", Sector: "Technology", Industry: "Consumer Electronics", ESGScore: 16.8},
			&universe.Record{Ticker: "XOM", Name: "Exxon Mobil", Sector: "Energy", Industry: "Oil & Gas Integrated", ESGScore: 41.5},
			&universe.Record{Ticker: "NEE", Name: "NextEra Energy", Sector: "Utilities", Industry: "Utilities - Regulated Electric", ESGScore: 24.1},
			&universe.Record{Ticker: "aapl", Name: "Apple Duplicate", ESGScore: 99.9},
			&universe.Record{Ticker: "", Name: "Ghost Co", ESGScore: 12.0},
		)
	})

	Describe("building a universe", func() {
		It("normalizes tickers and drops duplicates and blanks", func() {
			Expect(subject.Len()).To(Equal(4))
			Expect(subject.Tickers()).To(Equal([]string{"MSFT", "AAPL", "XOM", "NEE"}))
		})

		It("keeps the first record when a ticker repeats", func() {
			record, ok := subject.Record("AAPL")
			Expect(ok).To(BeTrue())
			Expect(record.Name).To(Equal("Apple Inc"))
			Expect(record.ESGScore).To(Equal(16.8))
		})

		It("looks up records case-insensitively", func() {
			record, ok := subject.Record(" xom ")
			Expect(ok).To(BeTrue())
			Expect(record.Name).To(Equal("Exxon Mobil"))

			_, ok = subject.Record("TSLA")
			Expect(ok).To(BeFalse())
		})
	})

	DescribeTable("filtering by industry text",
		func(text string, expected []string) {
			filtered := subject.Filter(text)
			Expect(filtered.Tickers()).To(Equal(expected))
		},
		Entry("sector match", "technology", []string{"MSFT", "AAPL"}),
		Entry("industry substring match", "software", []string{"MSFT"}),
		Entry("case insensitive", "ENERGY", []string{"XOM"}),
		Entry("no match", "banking", []string{}),
	)

	It("returns the whole universe for an empty filter", func() {
		Expect(subject.Filter("")).To(BeIdenticalTo(subject))
		Expect(subject.Filter("  ").Len()).To(Equal(4))
	})

	DescribeTable("restricting to a ticker subset",
		func(tickers []string, expected []string) {
			restricted := subject.Subset(tickers...)
			Expect(restricted.Tickers()).To(Equal(expected))
		},
		Entry("known tickers in request order", []string{"xom", "MSFT"}, []string{"XOM", "MSFT"}),
		Entry("unknown tickers dropped", []string{"AAPL", "TSLA"}, []string{"AAPL"}),
		Entry("nothing known", []string{"TSLA", "GME"}, []string{}),
	)

	It("returns the whole universe for an empty subset", func() {
		Expect(subject.Subset()).To(BeIdenticalTo(subject))
	})
})
