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
)

var _ = Describe("ParseQuery", func() {
	DescribeTable("extracting preferences from free text",
		func(query string, esg recommend.Category, risk recommend.Category, industry string) {
			prefs := recommend.ParseQuery(query)
			Expect(prefs.ESG).To(Equal(esg))
			Expect(prefs.Risk).To(Equal(risk))
			Expect(prefs.Industry).To(Equal(industry))
		},
		Entry("esg and risk with sector",
			"low esg low risk in technology", recommend.Low, recommend.Low, "Technology"),
		Entry("synonyms for safe and banking",
			"I want high ESG, safe investments in banking", recommend.High, recommend.Low, "Financial Services"),
		Entry("aggressive renewables",
			"aggressive growth in renewables", recommend.Medium, recommend.High, "Energy"),
		Entry("conservative pharma",
			"conservative pharma picks", recommend.Medium, recommend.Low, "Healthcare"),
		Entry("explicit medium falls through to defaults",
			"medium esg medium risk", recommend.Medium, recommend.Medium, ""),
		Entry("empty query",
			"", recommend.Medium, recommend.Medium, ""),
		Entry("any sector disables the industry filter",
			"any sector low risk", recommend.Medium, recommend.Low, ""),
		Entry("weak esg with speculative media",
			"weak esg speculative media plays", recommend.Low, recommend.High, "Communication Services"),
		Entry("punctuation and case",
			"LOW-RISK, high ESG! (tech)", recommend.High, recommend.Low, "Technology"),
		Entry("first risk keyword wins",
			"low risk high risk", recommend.Medium, recommend.Low, ""),
		Entry("software maps to technology",
			"good esg software companies", recommend.High, recommend.Medium, "Technology"),
		Entry("unknown industry stays empty",
			"poor esg risky frontier markets", recommend.Low, recommend.High, ""),
	)
})
