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
	"fmt"
	"os"
	"time"

	"github.com/greenfolio/gf-api/common"
	"github.com/greenfolio/gf-api/data"
	"github.com/jarcoal/httpmock"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func stooqDownloadURL(symbol string, period string) string {
	end := time.Now().In(common.GetTimezone())
	var begin time.Time
	switch period {
	case "2y":
		begin = end.AddDate(-2, 0, 0)
	default:
		begin = end.AddDate(-5, 0, 0)
	}
	return fmt.Sprintf("https://stooq.com/q/d/l/?s=%s&d1=%s&d2=%s&i=d", symbol, begin.Format("20060102"), end.Format("20060102"))
}

var _ = Describe("Stooq", func() {
	var (
		provider data.PriceSource
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		provider = data.NewStooq()
		httpmock.Activate()
	})

	AfterEach(func() {
		httpmock.DeactivateAndReset()
	})

	Context("when the download endpoint has data", func() {
		BeforeEach(func() {
			content, err := os.ReadFile("testdata/stooq_ibm.csv")
			if err != nil {
				panic(err)
			}

			httpmock.RegisterResponder("GET", stooqDownloadURL("ibm.us", "2y"),
				httpmock.NewBytesResponder(200, content))
		})

		It("parses the csv through the column alias table", func() {
			series, err := provider.FetchPrices(ctx, "IBM", "2y", "1d")
			Expect(err).To(BeNil())

			Expect(series.Len()).To(Equal(5))
			Expect(series.Ticker).To(Equal("IBM"))

			nyc := common.GetTimezone()
			Expect(series.Dates[0]).To(BeTemporally("==", time.Date(2022, 6, 6, 16, 0, 0, 0, nyc)))
			Expect(series.Close[0]).To(Equal(142.88))
			Expect(series.Close[4]).To(Equal(138.84))
		})
	})

	Context("when stooq has no coverage", func() {
		It("maps the no data sentinel to ErrNoCoverage", func() {
			httpmock.RegisterResponder("GET", stooqDownloadURL("nodata.us", "2y"),
				httpmock.NewStringResponder(200, "No data"))

			_, err := provider.FetchPrices(ctx, "NODATA", "2y", "1d")
			Expect(err).To(MatchError(data.ErrNoCoverage))
		})

		It("maps an empty body to ErrNoCoverage", func() {
			httpmock.RegisterResponder("GET", stooqDownloadURL("empty.us", "2y"),
				httpmock.NewStringResponder(200, ""))

			_, err := provider.FetchPrices(ctx, "EMPTY", "2y", "1d")
			Expect(err).To(MatchError(data.ErrNoCoverage))
		})
	})

	Context("when the response is not price data", func() {
		It("returns ErrUnresolvedSchema", func() {
			httpmock.RegisterResponder("GET", stooqDownloadURL("weird.us", "2y"),
				httpmock.NewStringResponder(200, "a,b,c\n1,2,3\n"))

			_, err := provider.FetchPrices(ctx, "WEIRD", "2y", "1d")
			Expect(err).To(MatchError(data.ErrUnresolvedSchema))
		})
	})

	Context("when the ticker carries an exchange suffix", func() {
		It("does not append a second suffix", func() {
			content, err := os.ReadFile("testdata/stooq_ibm.csv")
			Expect(err).To(BeNil())

			httpmock.RegisterResponder("GET", stooqDownloadURL("sap.de", "2y"),
				httpmock.NewBytesResponder(200, content))

			series, err := provider.FetchPrices(ctx, "SAP.DE", "2y", "1d")
			Expect(err).To(BeNil())
			Expect(series.Len()).To(Equal(5))
		})
	})
})
