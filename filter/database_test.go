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

package filter_test

import (
	"github.com/greenfolio/gf-api/filter"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BuildQuery", func() {
	Describe("when building a select", func() {
		Context("with passed parameters", func() {
			It("should error for no 'from'", func() {
				_, _, err := filter.BuildQuery("", make([]string, 0), make([]string, 0), make(map[string]string), "")
				Expect(err).NotTo(BeNil())
			})

			It("should escape select identifiers", func() {
				fields := []string{"a\"a", "b"}
				where := map[string]string{}
				sql, _, err := filter.BuildQuery("my_table", fields, make([]string, 0), where, "event_date DESC")
				Expect(err).To(BeNil())
				Expect(sql).To(Equal(`select "a""a", "b" from "my_table" order by event_date DESC`))
			})

			It("should escape from identifier", func() {
				fields := []string{"a"}
				where := map[string]string{}
				sql, _, err := filter.BuildQuery("my_\"table", fields, make([]string, 0), where, "event_date DESC")
				Expect(err).To(BeNil())
				Expect(sql).To(Equal(`select "a" from "my_""table" order by event_date DESC`))
			})

			It("should include safe fields verbatim", func() {
				fields := []string{"ticker"}
				safe := []string{"coalesce(market_cap, 0) as market_cap"}
				sql, _, err := filter.BuildQuery("esg_scores", fields, safe, map[string]string{}, "")
				Expect(err).To(BeNil())
				Expect(sql).To(Equal(`select "ticker", coalesce(market_cap, 0) as market_cap from "esg_scores"`))
			})

			It("should parametrize where clauses", func() {
				fields := []string{"ticker"}
				where := map[string]string{"industry": "ilike.%software%"}
				sql, args, err := filter.BuildQuery("esg_scores", fields, make([]string, 0), where, "")
				Expect(err).To(BeNil())
				Expect(sql).To(Equal(`select "ticker" from "esg_scores" where "industry" ilike $1`))
				Expect(args).To(Equal([]interface{}{"%software%"}))
			})

			It("should reject malformed where clauses", func() {
				where := map[string]string{"industry": "software"}
				_, _, err := filter.BuildQuery("esg_scores", []string{"ticker"}, make([]string, 0), where, "")
				Expect(err).NotTo(BeNil())
			})

			It("should reject unknown operators", func() {
				where := map[string]string{"industry": "matches.%software%"}
				_, _, err := filter.BuildQuery("esg_scores", []string{"ticker"}, make([]string, 0), where, "")
				Expect(err).NotTo(BeNil())
			})
		})
	})
})
