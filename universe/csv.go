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

package universe

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Accepted header spellings per record field, matched case-insensitively.
var csvAliases = map[string][]string{
	"ticker":   {"ticker", "symbol"},
	"name":     {"name", "company", "company name"},
	"sector":   {"sector"},
	"industry": {"industry"},
	"esg":      {"esg_score", "esg score", "total esg risk score", "esg risk score", "score"},
	"mktcap":   {"market_cap", "market cap", "marketcap", "mktcap"},
}

// FromCSV loads the ESG universe from a CSV export. A missing or
// unreadable file is an error; rows without a ticker or a parseable ESG
// score are skipped with a warning.
func FromCSV(path string) (*Universe, error) {
	subLog := log.With().Str("FileName", path).Logger()

	fh, err := os.Open(path)
	if err != nil {
		subLog.Error().Err(err).Msg("could not open universe file")
		return nil, err
	}
	defer fh.Close()

	reader := csv.NewReader(fh)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		subLog.Error().Err(err).Msg("could not parse universe file")
		return nil, err
	}

	if len(rows) == 0 {
		return New(), nil
	}

	cols := resolveHeader(rows[0])
	if cols["ticker"] == -1 || cols["esg"] == -1 {
		subLog.Error().Msg("universe file is missing a ticker or esg score column")
		return nil, ErrMissingColumns
	}

	records := make([]*Record, 0, len(rows)-1)
	for idx, row := range rows[1:] {
		record, ok := recordFromRow(row, cols)
		if !ok {
			subLog.Warn().Int("Row", idx+2).Msg("skipping malformed universe row")
			continue
		}
		records = append(records, record)
	}

	return New(records...), nil
}

func resolveHeader(header []string) map[string]int {
	normalized := make([]string, len(header))
	for idx, col := range header {
		normalized[idx] = strings.ToLower(strings.TrimSpace(col))
	}

	cols := make(map[string]int, len(csvAliases))
	for field, aliases := range csvAliases {
		cols[field] = -1
		for _, alias := range aliases {
			for idx, col := range normalized {
				if col == alias {
					cols[field] = idx
					break
				}
			}
			if cols[field] != -1 {
				break
			}
		}
	}

	return cols
}

func recordFromRow(row []string, cols map[string]int) (*Record, bool) {
	field := func(name string) string {
		idx := cols[name]
		if idx == -1 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	ticker := field("ticker")
	if ticker == "" {
		return nil, false
	}

	score, err := strconv.ParseFloat(field("esg"), 64)
	if err != nil {
		return nil, false
	}

	record := &Record{
		Ticker:   ticker,
		Name:     field("name"),
		Sector:   field("sector"),
		Industry: field("industry"),
		ESGScore: score,
	}

	if raw := field("mktcap"); raw != "" {
		if mktCap, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64); err == nil {
			record.MarketCap = mktCap
		}
	}

	return record, true
}
