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

package data

import (
	"time"

	"github.com/greenfolio/gf-api/dataframe"
)

// Source names as they appear in attempt records and configuration.
const (
	SourceYahoo = "yahoo"
	SourceStooq = "stooq"
	SourceEodDb = "eoddb"
	SourceCache = "cache"
)

// Source order modes. live-first consults the live providers before the
// on-disk cache; cache-first consults the cache before any live provider.
const (
	ModeLiveFirst  = "live-first"
	ModeCacheFirst = "cache-first"
)

// PriceSeries is normalized daily price history for a single ticker. Dates
// are strictly ascending and unique, stamped at 16:00 eastern; Close holds
// the adjusted close and is finite for every row. A zero-length series
// means no data.
type PriceSeries struct {
	Ticker string
	Dates  []time.Time
	Close  []float64
}

func (series *PriceSeries) Len() int {
	return len(series.Dates)
}

// Start returns the first date covered by the series.
func (series *PriceSeries) Start() time.Time {
	if series.Len() == 0 {
		return time.Time{}
	}
	return series.Dates[0]
}

// End returns the last date covered by the series.
func (series *PriceSeries) End() time.Time {
	if series.Len() == 0 {
		return time.Time{}
	}
	return series.Dates[series.Len()-1]
}

// DataFrame converts the series to a single-column dataframe keyed by the
// ticker.
func (series *PriceSeries) DataFrame() *dataframe.DataFrame {
	vals := make([]float64, len(series.Close))
	copy(vals, series.Close)
	dates := make([]time.Time, len(series.Dates))
	copy(dates, series.Dates)
	return &dataframe.DataFrame{
		Dates:    dates,
		ColNames: []string{series.Ticker},
		Vals:     [][]float64{vals},
	}
}

// Outcome classifies a single source attempt.
type Outcome int

const (
	// OutcomeOK means the attempt produced at least the requested minimum
	// number of rows and was accepted.
	OutcomeOK Outcome = iota

	// OutcomeThin means the attempt produced data but fewer rows than
	// requested.
	OutcomeThin

	// OutcomeEmpty means the source answered but had no usable rows for
	// the ticker.
	OutcomeEmpty

	// OutcomeFailed means the attempt failed outright, e.g. a transport or
	// decode error.
	OutcomeFailed
)

func (outcome Outcome) String() string {
	switch outcome {
	case OutcomeOK:
		return "ok"
	case OutcomeThin:
		return "thin"
	case OutcomeEmpty:
		return "empty"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Attempt records the result of trying one source for a ticker.
type Attempt struct {
	Source  string
	Outcome Outcome
	Rows    int
	Err     error
}
