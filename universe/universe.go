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

// Package universe holds the ESG reference records the recommendation
// engine draws candidates from. Records load from a CSV export or the
// esg_scores table; the ESG score is a risk score where lower is better.
package universe

import (
	"strings"
)

// Record is one security in the ESG universe.
type Record struct {
	Ticker    string  `json:"ticker"`
	Name      string  `json:"name"`
	Sector    string  `json:"sector"`
	Industry  string  `json:"industry"`
	ESGScore  float64 `json:"esgScore"`
	MarketCap float64 `json:"marketCap"`
}

// Universe is an immutable set of records indexed by ticker. Tickers are
// normalized to upper case; the first record wins when a ticker repeats.
type Universe struct {
	records  []*Record
	byTicker map[string]*Record
}

func New(records ...*Record) *Universe {
	universe := &Universe{
		records:  make([]*Record, 0, len(records)),
		byTicker: make(map[string]*Record, len(records)),
	}

	for _, record := range records {
		ticker := strings.ToUpper(strings.TrimSpace(record.Ticker))
		if ticker == "" {
			continue
		}
		if _, ok := universe.byTicker[ticker]; ok {
			continue
		}
		record.Ticker = ticker
		universe.records = append(universe.records, record)
		universe.byTicker[ticker] = record
	}

	return universe
}

func (universe *Universe) Len() int {
	return len(universe.records)
}

// Records returns all records in load order.
func (universe *Universe) Records() []*Record {
	return universe.records
}

// Record looks up a single ticker.
func (universe *Universe) Record(ticker string) (*Record, bool) {
	record, ok := universe.byTicker[strings.ToUpper(strings.TrimSpace(ticker))]
	return record, ok
}

// Tickers returns the tickers in load order.
func (universe *Universe) Tickers() []string {
	tickers := make([]string, 0, len(universe.records))
	for _, record := range universe.records {
		tickers = append(tickers, record.Ticker)
	}
	return tickers
}

// Subset returns the universe restricted to the given tickers. Unknown
// tickers are dropped. An empty ticker list returns the whole universe.
func (universe *Universe) Subset(tickers ...string) *Universe {
	if len(tickers) == 0 {
		return universe
	}

	matched := make([]*Record, 0, len(tickers))
	for _, ticker := range tickers {
		if record, ok := universe.Record(ticker); ok {
			matched = append(matched, record)
		}
	}

	return New(matched...)
}

// Filter returns the subset whose sector or industry contains the given
// text, case-insensitively. An empty filter returns the whole universe.
func (universe *Universe) Filter(industry string) *Universe {
	industry = strings.ToLower(strings.TrimSpace(industry))
	if industry == "" {
		return universe
	}

	matched := make([]*Record, 0, len(universe.records))
	for _, record := range universe.records {
		if strings.Contains(strings.ToLower(record.Sector), industry) ||
			strings.Contains(strings.ToLower(record.Industry), industry) {
			matched = append(matched, record)
		}
	}

	return New(matched...)
}
