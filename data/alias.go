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

import "strings"

// Canonical column names for the on-disk cache and all normalized output.
const (
	ColumnDate     = "Date"
	ColumnAdjClose = "Adj Close"
)

// Vendor spellings of the two canonical columns. Matching is
// case-insensitive and ignores surrounding whitespace. Close aliases are
// in priority order so an adjusted close column wins over a raw close when
// a header carries both.
var (
	dateAliases = []string{
		"date",
		"datetime",
		"timestamp",
	}

	closeAliases = []string{
		"adj close",
		"adjclose",
		"adjusted close",
		"adj_close",
		"close",
		"last",
		"price",
	}
)

// ResolveColumns locates the date and closing price columns in a header
// row. It returns ErrUnresolvedSchema when either column cannot be found.
func ResolveColumns(header []string) (dateIdx int, closeIdx int, err error) {
	normalized := make([]string, len(header))
	for idx, col := range header {
		normalized[idx] = strings.ToLower(strings.TrimSpace(col))
	}

	dateIdx = matchAlias(normalized, dateAliases)
	closeIdx = matchAlias(normalized, closeAliases)

	if dateIdx == -1 || closeIdx == -1 {
		return -1, -1, ErrUnresolvedSchema
	}

	return dateIdx, closeIdx, nil
}

func matchAlias(header []string, aliases []string) int {
	for _, alias := range aliases {
		for idx, col := range header {
			if col == alias {
				return idx
			}
		}
	}
	return -1
}
