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

package sentiment_test

import (
	"context"
	"os"

	"github.com/jarcoal/httpmock"
	"github.com/spf13/viper"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/greenfolio/gf-api/sentiment"
)

var _ = Describe("Client", func() {
	const feedURL = "https://feed.greenfolio.test/headlines.json"

	var ctx context.Context

	BeforeEach(func() {
		httpmock.Activate()

		viper.Set("sentiment.feed_url", feedURL)
		viper.Set("sentiment.disabled", false)
		ctx = context.Background()
	})

	AfterEach(func() {
		httpmock.DeactivateAndReset()
	})

	Context("when the feed responds", func() {
		BeforeEach(func() {
			content, err := os.ReadFile("testdata/feed.json")
			Expect(err).To(BeNil())
			httpmock.RegisterResponder("GET", feedURL,
				httpmock.NewBytesResponder(200, content))
		})

		It("labels tickers by headline majority", func() {
			client := sentiment.NewClient()
			labels := client.Labels(ctx, []string{"MSFT", "XOM", "NEE", "GF"})

			Expect(labels).To(HaveLen(4))
			Expect(labels["MSFT"]).To(Equal(sentiment.Positive))
			Expect(labels["XOM"]).To(Equal(sentiment.Negative))
			Expect(labels["NEE"]).To(Equal(sentiment.Neutral))
			Expect(labels["GF"]).To(Equal(sentiment.Neutral))
		})

		It("normalizes requested tickers", func() {
			client := sentiment.NewClient()
			labels := client.Labels(ctx, []string{" msft "})

			Expect(labels).To(HaveKey("MSFT"))
			Expect(labels["MSFT"]).To(Equal(sentiment.Positive))
		})

		It("ignores feed entries for unrequested tickers", func() {
			client := sentiment.NewClient()
			labels := client.Labels(ctx, []string{"NEE"})

			Expect(labels).To(HaveLen(1))
			Expect(labels).NotTo(HaveKey("TSLA"))
		})
	})

	Context("when the feed is unreachable", func() {
		It("degrades to neutral on a server error", func() {
			httpmock.RegisterResponder("GET", feedURL,
				httpmock.NewStringResponder(500, "internal server error"))

			client := sentiment.NewClient()
			labels := client.Labels(ctx, []string{"MSFT", "XOM"})

			Expect(labels["MSFT"]).To(Equal(sentiment.Neutral))
			Expect(labels["XOM"]).To(Equal(sentiment.Neutral))
		})

		It("degrades to neutral on malformed json", func() {
			httpmock.RegisterResponder("GET", feedURL,
				httpmock.NewStringResponder(200, "<html>not json</html>"))

			client := sentiment.NewClient()
			labels := client.Labels(ctx, []string{"MSFT"})

			Expect(labels["MSFT"]).To(Equal(sentiment.Neutral))
		})
	})

	Context("when sentiment is disabled", func() {
		It("returns neutral labels without calling the feed", func() {
			viper.Set("sentiment.disabled", true)

			client := sentiment.NewClient()
			labels := client.Labels(ctx, []string{"MSFT"})

			Expect(labels["MSFT"]).To(Equal(sentiment.Neutral))
			Expect(httpmock.GetTotalCallCount()).To(Equal(0))
		})
	})
})

var _ = Describe("Score", func() {
	It("maps labels onto the allocator scale", func() {
		Expect(sentiment.Score(sentiment.Positive)).To(Equal(1.0))
		Expect(sentiment.Score(sentiment.Negative)).To(Equal(-1.0))
		Expect(sentiment.Score(sentiment.Neutral)).To(Equal(0.0))
		Expect(sentiment.Score(sentiment.Label("bogus"))).To(Equal(0.0))
	})
})
