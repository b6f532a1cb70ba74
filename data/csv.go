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
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/greenfolio/gf-api/common"
)

// maxPreambleRows is how deep parsePriceCSV scans for a resolvable header.
// Some vendor exports prepend Price / Ticker / Date banner rows ahead of
// the real header.
const maxPreambleRows = 4

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
}

// parsePriceCSV normalizes CSV price data to a PriceSeries. The header is
// located with the column alias table, skipping any banner preamble; rows
// whose date or price cannot be coerced are dropped. Dates are stamped at
// 16:00 eastern.
func parsePriceCSV(body []byte, ticker string) (*PriceSeries, error) {
	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	headerRow := -1
	var dateIdx, closeIdx int
	for idx, record := range records {
		if idx >= maxPreambleRows {
			break
		}
		if dateIdx, closeIdx, err = ResolveColumns(record); err == nil {
			headerRow = idx
			break
		}
	}

	if headerRow == -1 {
		return nil, ErrUnresolvedSchema
	}

	nyc := common.GetTimezone()
	series := &PriceSeries{
		Ticker: strings.ToUpper(ticker),
		Dates:  make([]time.Time, 0, len(records)),
		Close:  make([]float64, 0, len(records)),
	}

	for _, record := range records[headerRow+1:] {
		if len(record) <= dateIdx || len(record) <= closeIdx {
			continue
		}

		eventDate, ok := parseDate(record[dateIdx], nyc)
		if !ok {
			continue
		}

		val, err := strconv.ParseFloat(strings.TrimSpace(record[closeIdx]), 64)
		if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
			continue
		}

		series.Dates = append(series.Dates, eventDate)
		series.Close = append(series.Close, val)
	}

	sortSeries(series)
	return series, nil
}

// encodePriceCSV renders a series in the canonical two-column cache
// format.
func encodePriceCSV(series *PriceSeries) []byte {
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "%s,%s\n", ColumnDate, ColumnAdjClose)
	for idx, eventDate := range series.Dates {
		fmt.Fprintf(buf, "%s,%s\n", eventDate.Format("2006-01-02"),
			strconv.FormatFloat(series.Close[idx], 'f', -1, 64))
	}
	return buf.Bytes()
}

func parseDate(field string, tz *time.Location) (time.Time, bool) {
	field = strings.TrimSpace(field)
	for _, layout := range dateLayouts {
		if parsed, err := time.ParseInLocation(layout, field, tz); err == nil {
			return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 16, 0, 0, 0, tz), true
		}
	}
	return time.Time{}, false
}

// sortSeries orders the series by date ascending and drops duplicate
// dates, keeping the last value seen for each date.
func sortSeries(series *PriceSeries) {
	type row struct {
		date  time.Time
		close float64
	}

	rows := make([]row, series.Len())
	for idx := range series.Dates {
		rows[idx] = row{date: series.Dates[idx], close: series.Close[idx]}
	}

	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].date.Before(rows[b].date)
	})

	series.Dates = series.Dates[:0]
	series.Close = series.Close[:0]
	for _, item := range rows {
		if n := len(series.Dates); n > 0 && series.Dates[n-1].Equal(item.date) {
			series.Close[n-1] = item.close
			continue
		}
		series.Dates = append(series.Dates, item.date)
		series.Close = append(series.Close, item.close)
	}
}
