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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/greenfolio/gf-api/recommend"
	"github.com/greenfolio/gf-api/sentiment"
)

var _ = Describe("ESGCategory", func() {
	DescribeTable("bucketing a risk-style esg score",
		func(score float64, expected recommend.Category) {
			Expect(recommend.ESGCategory(score)).To(Equal(expected))
		},
		Entry("well below the low band edge", 12.0, recommend.Low),
		Entry("just below 20", 19.99, recommend.Low),
		Entry("exactly 20", 20.0, recommend.Medium),
		Entry("just below 30", 29.99, recommend.Medium),
		Entry("exactly 30", 30.0, recommend.High),
		Entry("well above 30", 45.5, recommend.High),
	)
})

var _ = Describe("RiskCategory", func() {
	thresholds := recommend.Thresholds{Low: 0.2, High: 0.4}

	DescribeTable("bucketing a volatility against thresholds",
		func(volatility float64, expected recommend.Category) {
			Expect(recommend.RiskCategory(volatility, thresholds)).To(Equal(expected))
		},
		Entry("below the low cut", 0.1, recommend.Low),
		Entry("exactly the low cut", 0.2, recommend.Low),
		Entry("between the cuts", 0.3, recommend.Medium),
		Entry("exactly the high cut", 0.4, recommend.Medium),
		Entry("above the high cut", 0.55, recommend.High),
	)
})

var _ = Describe("VolatilityThresholds", func() {
	It("takes the 33rd and 66th percentiles of the distribution", func() {
		thresholds := recommend.VolatilityThresholds(map[string]float64{
			"A": 0.15,
			"B": 0.30,
			"C": 0.50,
		})

		Expect(thresholds.Low).To(BeNumerically("~", 0.249, 1e-9))
		Expect(thresholds.High).To(BeNumerically("~", 0.364, 1e-9))
	})

	It("falls back to fixed cut points for an empty distribution", func() {
		thresholds := recommend.VolatilityThresholds(nil)
		Expect(thresholds.Low).To(Equal(0.20))
		Expect(thresholds.High).To(Equal(0.40))
	})

	It("collapses to the single observation", func() {
		thresholds := recommend.VolatilityThresholds(map[string]float64{"A": 0.27})
		Expect(thresholds.Low).To(Equal(0.27))
		Expect(thresholds.High).To(Equal(0.27))
	})
})

var _ = Describe("DecideTier", func() {
	prefs := &recommend.Preferences{ESG: recommend.Low, Risk: recommend.Medium}

	DescribeTable("applying the tier precedence for prefs (Low esg, Medium risk)",
		func(esgCat recommend.Category, riskCat recommend.Category, label sentiment.Label, expected recommend.Tier) {
			Expect(recommend.DecideTier(esgCat, riskCat, label, prefs)).To(Equal(expected))
		},
		Entry("both match, positive", recommend.Low, recommend.Medium, sentiment.Positive, recommend.TierGreen),
		Entry("both match, negative sentiment does not downgrade green", recommend.Low, recommend.Medium, sentiment.Negative, recommend.TierGreen),
		Entry("esg only, positive", recommend.Low, recommend.Low, sentiment.Positive, recommend.TierYellow),
		Entry("esg only, neutral", recommend.Low, recommend.High, sentiment.Neutral, recommend.TierYellow),
		Entry("esg only, negative", recommend.Low, recommend.Low, sentiment.Negative, recommend.TierRed),
		Entry("risk only, positive", recommend.Medium, recommend.Medium, sentiment.Positive, recommend.TierYellow),
		Entry("risk only, neutral", recommend.High, recommend.Medium, sentiment.Neutral, recommend.TierYellow),
		Entry("risk only, negative", recommend.High, recommend.Medium, sentiment.Negative, recommend.TierRed),
		Entry("neither, positive", recommend.Medium, recommend.Low, sentiment.Positive, recommend.TierRed),
		Entry("neither, neutral", recommend.Medium, recommend.High, sentiment.Neutral, recommend.TierRed),
		Entry("neither, negative", recommend.High, recommend.High, sentiment.Negative, recommend.TierRed),
	)

	It("holds the precedence for every combination of categories, sentiment, and preferences", func() {
		categories := []recommend.Category{recommend.Low, recommend.Medium, recommend.High}
		labels := []sentiment.Label{sentiment.Positive, sentiment.Neutral, sentiment.Negative}

		for _, esgPref := range categories {
			for _, riskPref := range categories {
				sweep := &recommend.Preferences{ESG: esgPref, Risk: riskPref}
				for _, esgCat := range categories {
					for _, riskCat := range categories {
						for _, label := range labels {
							esgMatch := esgCat == esgPref
							riskMatch := riskCat == riskPref

							var expected recommend.Tier
							switch {
							case esgMatch && riskMatch:
								expected = recommend.TierGreen
							case (esgMatch || riskMatch) && label != sentiment.Negative:
								expected = recommend.TierYellow
							default:
								expected = recommend.TierRed
							}

							Expect(recommend.DecideTier(esgCat, riskCat, label, sweep)).To(Equal(expected),
								"esg %s (want %s) risk %s (want %s) sentiment %s", esgCat, esgPref, riskCat, riskPref, label)
						}
					}
				}
			}
		}
	})
})

var _ = Describe("Suitable", func() {
	It("keeps the green and yellow picks and drops red", func() {
		recs := []*recommend.Recommendation{
			{Ticker: "AAA", Tier: recommend.TierGreen},
			{Ticker: "BBB", Tier: recommend.TierRed},
			{Ticker: "CCC", Tier: recommend.TierYellow},
		}

		suitable := recommend.Suitable(recs)
		Expect(suitable).To(HaveLen(2))
		Expect(suitable[0].Ticker).To(Equal("AAA"))
		Expect(suitable[1].Ticker).To(Equal("CCC"))
	})

	It("returns nothing for the no-match sentinel", func() {
		Expect(recommend.Suitable([]*recommend.Recommendation{{Ticker: recommend.NoSuitableMatch}})).To(BeEmpty())
	})
})
