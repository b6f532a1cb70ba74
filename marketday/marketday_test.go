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

package marketday_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/greenfolio/gf-api/common"
	"github.com/greenfolio/gf-api/marketday"
)

var _ = Describe("MarketDay", func() {
	DescribeTable("when parsing a schedule spec",
		func(spec string, hours marketday.MarketHours, expectedTimeSpec string, expectedTimeFlag string, expectedDateFlag string, expectedError error) {
			sched, err := marketday.New(spec, hours)
			if expectedError == nil {
				Expect(err).To(BeNil())
				Expect(sched.ScheduleString).To(Equal(spec))
				Expect(sched.TimeSpec).To(Equal(expectedTimeSpec))
				Expect(sched.TimeFlag).To(Equal(expectedTimeFlag))
				Expect(sched.DateFlag).To(Equal(expectedDateFlag))
			} else {
				Expect(err).To(Equal(expectedError))
			}
		},
		Entry("Daily every 5 minutes, regular hours", "*/5 * * * *", marketday.RegularHours, "*/5 * * * *", "", "", nil),
		Entry("Daily every 5 minutes brief form, regular hours", "*/5", marketday.RegularHours, "*/5 * * * *", "", "", nil),
		Entry("Daily every 5 minutes 2 of 5 fields specified, regular hours", "*/5 *", marketday.RegularHours, "*/5 * * * *", "", "", nil),
		Entry("Daily every 5 minutes 3 of 5 fields specified, regular hours", "*/5 * *", marketday.RegularHours, "*/5 * * * *", "", "", nil),
		Entry("Daily every 5 minutes 4 of 5 fields specified, regular hours", "*/5 * * *", marketday.RegularHours, "*/5 * * * *", "", "", nil),
		Entry("Daily every 5 minutes trailing whitespace, regular hours", "*/5 ", marketday.RegularHours, "*/5 * * * *", "", "", nil),
		Entry("Daily every 5 minutes leading whitespace, regular hours", " */5", marketday.RegularHours, "*/5 * * * *", "", "", nil),
		Entry("Malformed timespec with invalid characters", "$/5 * * * *", marketday.RegularHours, "", "", "", errors.New("failed to parse int from $: strconv.Atoi: parsing \"$\": invalid syntax")),
		Entry("Malformed timespec with too many fields", "*/5 * * * * *", marketday.RegularHours, "*/5 * * * *", "", "", errors.New("expected exactly 5 fields, found 6: [*/5 * * * * *]")),
		Entry("Daily 5 minutes after market open, regular hours", "@open 5 0 * * *", marketday.RegularHours, "35 9 * * *", "@open", "", nil),
		Entry("At market open, regular hours", "@open", marketday.RegularHours, "30 9 * * *", "@open", "", nil),
		Entry("5 min after market open brief form, regular hours", "@open 5", marketday.RegularHours, "35 9 * * *", "@open", "", nil),
		Entry("Daily 5 minutes before market open, regular hours", "@open -5 0 * * *", marketday.RegularHours, "25 9 * * *", "@open", "", nil),
		Entry("Daily 1 hour after market open, regular hours", "@open 0 1 * * *", marketday.RegularHours, "30 10 * * *", "@open", "", nil),
		Entry("Daily 90 minutes after market open, regular hours", "@open 90 0 * * *", marketday.RegularHours, "0 11 * * *", "@open", "", nil),
		Entry("Daily 1 hour before market open, regular hours", "@open 0 -1 * * *", marketday.RegularHours, "30 8 * * *", "@open", "", nil),
		Entry("Daily 15 hours after market open, regular hours", "@open 0 15 * * *", marketday.RegularHours, "", "", "", marketday.ErrFieldOutOfBounds),
		Entry("Daily 10 hours before market open, regular hours", "@open 0 -10 * * *", marketday.RegularHours, "", "", "", marketday.ErrFieldOutOfBounds),
		Entry("30 minutes after market close brief form, regular hours", "@close 30", marketday.RegularHours, "30 16 * * *", "@close", "", nil),
		Entry("Daily 5 minutes after market close, regular hours", "@close 5 0 * * *", marketday.RegularHours, "5 16 * * *", "@close", "", nil),
		Entry("Daily 5 minutes before market close, regular hours", "@close -5 0 * * *", marketday.RegularHours, "55 15 * * *", "@close", "", nil),
		Entry("Daily 1 hour after market close, regular hours", "@close 0 1 * * *", marketday.RegularHours, "0 17 * * *", "@close", "", nil),
		Entry("Daily 1 hour before market close, regular hours", "@close 0 -1 * * *", marketday.RegularHours, "0 15 * * *", "@close", "", nil),
		Entry("Daily 8 hours after market close, regular hours", "@close 0 8 * * *", marketday.RegularHours, "", "", "", marketday.ErrFieldOutOfBounds),
		Entry("Daily 17 hours before market close, regular hours", "@close 0 -17 * * *", marketday.RegularHours, "", "", "", marketday.ErrFieldOutOfBounds),
		Entry("Daily 5 minutes after market open, extended hours", "@open 5 0 * * *", marketday.ExtendedHours, "5 7 * * *", "@open", "", nil),
		Entry("Daily 5 minutes before market open, extended hours", "@open -5 0 * * *", marketday.ExtendedHours, "55 6 * * *", "@open", "", nil),
		Entry("Daily 1 hour after market close, extended hours", "@close 0 1 * * *", marketday.ExtendedHours, "0 21 * * *", "@close", "", nil),
		Entry("Daily 1 hour before market close, extended hours", "@close 0 -1 * * *", marketday.ExtendedHours, "0 19 * * *", "@close", "", nil),
		Entry("Daily 8 hours after market close, extended hours", "@close 0 8 * * *", marketday.ExtendedHours, "", "", "", marketday.ErrFieldOutOfBounds),
		Entry("Annually, regular hours", "@monthend * * * 12 *", marketday.RegularHours, "* * * 12 *", "", "@monthend", nil),
		Entry("Both @open @close specified", "@open @close", marketday.RegularHours, "", "", "", marketday.ErrConflictingModifiers),
		Entry("Both @weekbegin @weekend specified", "@weekbegin @weekend", marketday.RegularHours, "", "", "", marketday.ErrConflictingModifiers),
		Entry("Both @weekbegin @monthbegin specified", "@weekbegin @monthbegin", marketday.RegularHours, "", "", "", marketday.ErrConflictingModifiers),
		Entry("Both @weekend @monthend specified", "@weekend @monthend", marketday.RegularHours, "", "", "", marketday.ErrConflictingModifiers),
		Entry("@weekbegin test", "@weekbegin */5", marketday.RegularHours, "*/5 * * * *", "", "@weekbegin", nil),
		Entry("Unknown modifier", "@modifier", marketday.RegularHours, "", "", "", marketday.ErrUnknownModifier),
	)

	DescribeTable("when evaluating next trade day",
		func(spec string, hours marketday.MarketHours, given time.Time, expected time.Time) {
			sched, err := marketday.New(spec, hours)
			Expect(err).To(BeNil())
			next := sched.Next(given)
			Expect(next).To(Equal(expected))
		},
		Entry("every 5 minutes starting on saturday", "*/5 * * * *", marketday.RegularHours, time.Date(2022, 7, 16, 0, 0, 0, 0, common.GetTimezone()), time.Date(2022, 7, 18, 9, 30, 0, 0, common.GetTimezone())),
		Entry("every 5 minutes starting on monday at market open", "*/5 * * * *", marketday.RegularHours, time.Date(2022, 7, 18, 9, 30, 0, 0, common.GetTimezone()), time.Date(2022, 7, 18, 9, 35, 0, 0, common.GetTimezone())),
		Entry("every 5 minutes starting on monday at market close", "*/5 * * * *", marketday.RegularHours, time.Date(2022, 7, 18, 16, 0, 0, 0, common.GetTimezone()), time.Date(2022, 7, 19, 9, 30, 0, 0, common.GetTimezone())),
		Entry("every 5 minutes starting on monday, extended hours", "*/5 * * * *", marketday.ExtendedHours, time.Date(2022, 7, 18, 0, 0, 0, 0, common.GetTimezone()), time.Date(2022, 7, 18, 7, 0, 0, 0, common.GetTimezone())),
		Entry("every 5 minutes starting on monday at market close, extended hours", "*/5 * * * *", marketday.ExtendedHours, time.Date(2022, 7, 18, 20, 0, 0, 0, common.GetTimezone()), time.Date(2022, 7, 19, 7, 0, 0, 0, common.GetTimezone())),
		Entry("every 5 minutes starting on July 4th holiday", "*/5 * * * *", marketday.RegularHours, time.Date(2022, 7, 4, 0, 0, 0, 0, common.GetTimezone()), time.Date(2022, 7, 5, 9, 30, 0, 0, common.GetTimezone())),
		Entry("every 5 minutes starting at early close", "*/5 * * * *", marketday.RegularHours, time.Date(2022, 11, 25, 13, 0, 0, 0, common.GetTimezone()), time.Date(2022, 11, 28, 9, 30, 0, 0, common.GetTimezone())),
		Entry("Annually, regular hours", "@monthend * * * 12 *", marketday.RegularHours, time.Date(2022, 6, 25, 13, 0, 0, 0, common.GetTimezone()), time.Date(2022, 12, 30, 9, 30, 0, 0, common.GetTimezone())),
		Entry("month begin", "@monthbegin", marketday.RegularHours, time.Date(2022, 6, 25, 13, 0, 0, 0, common.GetTimezone()), time.Date(2022, 7, 1, 9, 30, 0, 0, common.GetTimezone())),
		Entry("month end", "@monthend", marketday.RegularHours, time.Date(2022, 7, 1, 0, 0, 0, 0, common.GetTimezone()), time.Date(2022, 7, 29, 9, 30, 0, 0, common.GetTimezone())),
		Entry("week begin", "@weekbegin", marketday.RegularHours, time.Date(2022, 7, 4, 0, 0, 0, 0, common.GetTimezone()), time.Date(2022, 7, 5, 9, 30, 0, 0, common.GetTimezone())),
		Entry("week end", "@weekend", marketday.RegularHours, time.Date(2022, 7, 4, 0, 0, 0, 0, common.GetTimezone()), time.Date(2022, 7, 8, 9, 30, 0, 0, common.GetTimezone())),
	)

	DescribeTable("when evaluating IsTradeDay",
		func(spec string, hours marketday.MarketHours, given time.Time, expected bool) {
			sched, err := marketday.New(spec, hours)
			Expect(err).To(BeNil())
			tradeDay := sched.IsTradeDay(given)
			Expect(tradeDay).To(Equal(expected))
		},
		Entry("every 5 minutes starting on saturday", "*/5 * * * *", marketday.RegularHours, time.Date(2022, 7, 16, 0, 0, 0, 0, common.GetTimezone()), false),
		Entry("every 5 minutes starting on monday at market open", "*/5 * * * *", marketday.RegularHours, time.Date(2022, 7, 18, 9, 30, 0, 0, common.GetTimezone()), true),
		Entry("every 5 minutes starting on monday at market close", "*/5 * * * *", marketday.RegularHours, time.Date(2022, 7, 18, 16, 0, 0, 0, common.GetTimezone()), true),
		Entry("every 5 minutes starting on July 4th holiday", "*/5 * * * *", marketday.RegularHours, time.Date(2022, 7, 4, 0, 0, 0, 0, common.GetTimezone()), false),
		Entry("every 5 minutes starting at early close", "*/5 * * * *", marketday.RegularHours, time.Date(2022, 11, 25, 13, 0, 0, 0, common.GetTimezone()), true),
		Entry("month begin, date given not month begin", "@monthbegin", marketday.RegularHours, time.Date(2022, 6, 25, 13, 0, 0, 0, common.GetTimezone()), false),
		Entry("month begin, date given is month begin", "@monthbegin", marketday.RegularHours, time.Date(2022, 7, 1, 13, 0, 0, 0, common.GetTimezone()), true),
		Entry("month end, date given not month end", "@monthend", marketday.RegularHours, time.Date(2022, 7, 1, 0, 0, 0, 0, common.GetTimezone()), false),
		Entry("month end, date given is month end", "@monthend", marketday.RegularHours, time.Date(2022, 7, 29, 9, 30, 0, 0, common.GetTimezone()), true),
		Entry("week begin, date given is not week begin (holiday)", "@weekbegin", marketday.RegularHours, time.Date(2022, 7, 4, 0, 0, 0, 0, common.GetTimezone()), false),
		Entry("week begin, date given is week begin (holiday)", "@weekbegin", marketday.RegularHours, time.Date(2022, 7, 5, 9, 30, 0, 0, common.GetTimezone()), true),
		Entry("week begin, date given is not week begin", "@weekbegin", marketday.RegularHours, time.Date(2022, 7, 1, 0, 0, 0, 0, common.GetTimezone()), false),
		Entry("week begin, date given is week begin", "@weekbegin", marketday.RegularHours, time.Date(2022, 7, 11, 9, 30, 0, 0, common.GetTimezone()), true),
		Entry("week end, date given is not week end", "@weekend", marketday.RegularHours, time.Date(2022, 7, 6, 0, 0, 0, 0, common.GetTimezone()), false),
		Entry("week end, date given is week end", "@weekend", marketday.RegularHours, time.Date(2022, 7, 8, 9, 30, 0, 0, common.GetTimezone()), true),
	)

	DescribeTable("when checking the trading calendar",
		func(given time.Time, expected bool) {
			Expect(marketday.IsTradingDay(given)).To(Equal(expected))
		},
		Entry("regular monday", time.Date(2022, 7, 18, 0, 0, 0, 0, common.GetTimezone()), true),
		Entry("saturday", time.Date(2022, 7, 16, 0, 0, 0, 0, common.GetTimezone()), false),
		Entry("good friday", time.Date(2022, 4, 15, 0, 0, 0, 0, common.GetTimezone()), false),
		Entry("juneteenth observed on monday", time.Date(2022, 6, 20, 0, 0, 0, 0, common.GetTimezone()), false),
		Entry("day after juneteenth", time.Date(2022, 6, 21, 0, 0, 0, 0, common.GetTimezone()), true),
		Entry("early close day after thanksgiving", time.Date(2022, 11, 25, 0, 0, 0, 0, common.GetTimezone()), true),
		Entry("christmas observed on monday", time.Date(2022, 12, 26, 0, 0, 0, 0, common.GetTimezone()), false),
		Entry("christmas eve observed for saturday christmas", time.Date(2021, 12, 24, 0, 0, 0, 0, common.GetTimezone()), false),
		Entry("new years eve when jan 1 falls on saturday", time.Date(2021, 12, 31, 0, 0, 0, 0, common.GetTimezone()), true),
	)

	DescribeTable("when finding the next market close",
		func(given time.Time, expected time.Time) {
			Expect(marketday.NextClose(given)).To(Equal(expected))
		},
		Entry("mid-session", time.Date(2022, 7, 18, 10, 0, 0, 0, common.GetTimezone()), time.Date(2022, 7, 18, 16, 0, 0, 0, common.GetTimezone())),
		Entry("exactly at the close", time.Date(2022, 7, 18, 16, 0, 0, 0, common.GetTimezone()), time.Date(2022, 7, 19, 16, 0, 0, 0, common.GetTimezone())),
		Entry("saturday", time.Date(2022, 7, 16, 12, 0, 0, 0, common.GetTimezone()), time.Date(2022, 7, 18, 16, 0, 0, 0, common.GetTimezone())),
		Entry("early close day", time.Date(2022, 11, 25, 9, 0, 0, 0, common.GetTimezone()), time.Date(2022, 11, 25, 13, 0, 0, 0, common.GetTimezone())),
		Entry("across the new year", time.Date(2022, 12, 30, 17, 0, 0, 0, common.GetTimezone()), time.Date(2023, 1, 3, 16, 0, 0, 0, common.GetTimezone())),
	)
})
