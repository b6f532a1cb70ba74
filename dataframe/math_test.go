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

package dataframe_test

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/greenfolio/gf-api/common"
	"github.com/greenfolio/gf-api/dataframe"
)

var _ = Describe("When computing percentage change", func() {
	var (
		df *dataframe.DataFrame
		tz *time.Location
	)

	BeforeEach(func() {
		tz = common.GetTimezone()

		df = &dataframe.DataFrame{
			Dates: []time.Time{
				time.Date(2021, time.January, 1, 0, 0, 0, 0, tz),
				time.Date(2021, time.January, 4, 0, 0, 0, 0, tz),
				time.Date(2021, time.January, 5, 0, 0, 0, 0, tz),
				time.Date(2021, time.January, 6, 0, 0, 0, 0, tz),
				time.Date(2021, time.January, 7, 0, 0, 0, 0, tz),
			},
			Vals:     [][]float64{{100.0, 110.0, 99.0, 99.0, 108.9}},
			ColNames: []string{"AAPL"},
		}
	})

	It("computes daily returns with a NaN warm-up row", func() {
		ret := df.PctChange(1)
		Expect(ret.Len()).To(Equal(5))
		Expect(math.IsNaN(ret.Vals[0][0])).To(BeTrue())
		Expect(ret.Vals[0][1]).To(BeNumerically("~", 0.10, 1e-9))
		Expect(ret.Vals[0][2]).To(BeNumerically("~", -0.10, 1e-9))
		Expect(ret.Vals[0][3]).To(BeNumerically("~", 0.0, 1e-9))
		Expect(ret.Vals[0][4]).To(BeNumerically("~", 0.10, 1e-9))
	})

	It("computes multi-period change", func() {
		ret := df.PctChange(4)
		Expect(math.IsNaN(ret.Vals[0][3])).To(BeTrue())
		Expect(ret.Vals[0][4]).To(BeNumerically("~", 0.089, 1e-9))
	})

	It("does not modify the input frame", func() {
		_ = df.PctChange(1)
		Expect(df.Vals[0][0]).To(Equal(100.0))
	})
})

var _ = Describe("When computing column statistics", func() {
	var df *dataframe.DataFrame

	BeforeEach(func() {
		dates := make([]time.Time, 5)
		dt := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
		for idx := range dates {
			dates[idx] = dt
			dt = dt.AddDate(0, 0, 1)
		}
		df = &dataframe.DataFrame{
			Dates:    dates,
			ColNames: []string{"A", "B"},
			Vals: [][]float64{
				{math.NaN(), 1, 2, 3, 4},
				{2, 2, 2, 2, 2},
			},
		}
	})

	It("ignores NaN rows in the mean", func() {
		means := df.ColMean()
		Expect(means["A"]).To(BeNumerically("~", 2.5, 1e-9))
		Expect(means["B"]).To(Equal(2.0))
	})

	It("computes the sample standard deviation", func() {
		stdev := df.ColStdDev()
		Expect(stdev["A"]).To(BeNumerically("~", 1.29099444873, 1e-9))
		Expect(stdev["B"]).To(Equal(0.0))
	})

	It("returns NaN for columns with too few values", func() {
		df.Vals[0] = []float64{math.NaN(), math.NaN(), math.NaN(), math.NaN(), 1}
		stdev := df.ColStdDev()
		Expect(math.IsNaN(stdev["A"])).To(BeTrue())
	})

	It("computes a rolling standard deviation with warm-up NaNs", func() {
		rolling := df.RollingStdDev(3)
		Expect(math.IsNaN(rolling.Vals[1][0])).To(BeTrue())
		Expect(math.IsNaN(rolling.Vals[1][1])).To(BeTrue())
		Expect(rolling.Vals[1][2]).To(Equal(0.0))
		Expect(rolling.Vals[0][4]).To(BeNumerically("~", 1.0, 1e-9))
	})
})
