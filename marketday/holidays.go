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

package marketday

import (
	"sync"
	"time"

	"github.com/greenfolio/gf-api/common"
)

// holidays maps the midnight unix timestamp of an exchange holiday to its
// close time (e.g. 1300 for a 1:00pm early close); 0 means the market is
// closed all day. Calendars are computed per-year on first use.
var (
	holidays      = make(map[int64]int)
	holidayYears  = make(map[int]bool)
	holidayLocker sync.RWMutex
)

// IsTradingDay returns true if the specified date is a valid trading day
// (i.e. not a market holiday or weekend). Early close days count as
// trading days.
func IsTradingDay(t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}

	closeTime, ok := holidayClose(t, common.GetTimezone())
	return !(ok && closeTime == 0)
}

// holidayClose looks up the holiday close time for the given date. The
// second return value reports whether the date appears on the holiday
// calendar at all.
func holidayClose(t time.Time, tz *time.Location) (int, bool) {
	ensureYear(t.Year(), tz)

	holidayLocker.RLock()
	defer holidayLocker.RUnlock()

	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, tz)
	closeTime, ok := holidays[d.Unix()]
	return closeTime, ok
}

func ensureYear(year int, tz *time.Location) {
	holidayLocker.Lock()
	defer holidayLocker.Unlock()

	if holidayYears[year] {
		return
	}

	for dt, closeTime := range marketCalendar(year, tz) {
		holidays[dt] = closeTime
	}
	holidayYears[year] = true
}

// marketCalendar computes the NYSE holiday calendar for a single year,
// including 1:00pm early close days.
func marketCalendar(year int, tz *time.Location) map[int64]int {
	cal := make(map[int64]int)

	newYears := time.Date(year, time.January, 1, 0, 0, 0, 0, tz)
	switch newYears.Weekday() {
	case time.Sunday:
		cal[newYears.AddDate(0, 0, 1).Unix()] = 0
	case time.Saturday:
		// the exchange does not observe New Year's Day when it falls on a Saturday
	default:
		cal[newYears.Unix()] = 0
	}

	cal[nthWeekday(year, time.January, time.Monday, 3, tz).Unix()] = 0  // Martin Luther King Jr. Day
	cal[nthWeekday(year, time.February, time.Monday, 3, tz).Unix()] = 0 // Washington's Birthday
	cal[easterSunday(year, tz).AddDate(0, 0, -2).Unix()] = 0            // Good Friday
	cal[lastWeekday(year, time.May, time.Monday, tz).Unix()] = 0        // Memorial Day

	if year >= 2022 {
		cal[observedOn(time.Date(year, time.June, 19, 0, 0, 0, 0, tz)).Unix()] = 0 // Juneteenth
	}

	cal[observedOn(time.Date(year, time.July, 4, 0, 0, 0, 0, tz)).Unix()] = 0 // Independence Day
	cal[nthWeekday(year, time.September, time.Monday, 1, tz).Unix()] = 0      // Labor Day

	thanksgiving := nthWeekday(year, time.November, time.Thursday, 4, tz)
	cal[thanksgiving.Unix()] = 0

	cal[observedOn(time.Date(year, time.December, 25, 0, 0, 0, 0, tz)).Unix()] = 0 // Christmas

	// early closes; the weekday guards keep observed full-day holidays from
	// being downgraded (e.g. July 3rd when the 4th falls on a Saturday)
	cal[thanksgiving.AddDate(0, 0, 1).Unix()] = 1300

	jul3 := time.Date(year, time.July, 3, 0, 0, 0, 0, tz)
	if jul3.Weekday() >= time.Monday && jul3.Weekday() <= time.Thursday {
		cal[jul3.Unix()] = 1300
	}

	xmasEve := time.Date(year, time.December, 24, 0, 0, 0, 0, tz)
	if xmasEve.Weekday() >= time.Monday && xmasEve.Weekday() <= time.Thursday {
		cal[xmasEve.Unix()] = 1300
	}

	return cal
}

// easterSunday computes the date of Easter with the anonymous Gregorian
// algorithm; Good Friday is two days earlier.
func easterSunday(year int, tz *time.Location) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451

	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, tz)
}

func nthWeekday(year int, month time.Month, weekday time.Weekday, n int, tz *time.Location) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, tz)
	for d.Weekday() != weekday {
		d = d.AddDate(0, 0, 1)
	}
	return d.AddDate(0, 0, 7*(n-1))
}

func lastWeekday(year int, month time.Month, weekday time.Weekday, tz *time.Location) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, tz).AddDate(0, 1, -1)
	for d.Weekday() != weekday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// observedOn shifts a holiday that falls on a weekend to the weekday the
// exchange observes it on: Saturday holidays move to Friday, Sunday
// holidays to Monday.
func observedOn(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		return t.AddDate(0, 0, -1)
	case time.Sunday:
		return t.AddDate(0, 0, 1)
	}
	return t
}
