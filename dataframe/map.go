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

package dataframe

import (
	"math"
	"sort"
	"time"
)

// DataFrameMap indexes dataframes by name so per-security histories can be
// merged into a single matrix.
type DataFrameMap map[string]*DataFrame

// DataFrame outer-joins every frame in the map over the union of their
// dates; rows a frame does not cover are padded with NaN. Column order
// follows order, skipping names without a frame and duplicate mentions;
// names absent from order are left out of the result.
func (dfMap DataFrameMap) DataFrame(order ...string) *DataFrame {
	dateSet := make(map[int64]time.Time)
	for _, df := range dfMap {
		for _, eventDate := range df.Dates {
			dateSet[eventDate.Unix()] = eventDate
		}
	}

	stamps := make([]int64, 0, len(dateSet))
	for stamp := range dateSet {
		stamps = append(stamps, stamp)
	}
	sort.Slice(stamps, func(a, b int) bool { return stamps[a] < stamps[b] })

	dates := make([]time.Time, len(stamps))
	rowIdx := make(map[int64]int, len(stamps))
	for idx, stamp := range stamps {
		dates[idx] = dateSet[stamp]
		rowIdx[stamp] = idx
	}

	merged := &DataFrame{
		Dates:    dates,
		ColNames: make([]string, 0, len(dfMap)),
		Vals:     make([][]float64, 0, len(dfMap)),
	}

	seen := make(map[string]bool, len(order))
	for _, name := range order {
		df, ok := dfMap[name]
		if !ok || seen[name] {
			continue
		}
		seen[name] = true

		for colIdx, colName := range df.ColNames {
			col := make([]float64, len(dates))
			for idx := range col {
				col[idx] = math.NaN()
			}
			for idx, eventDate := range df.Dates {
				col[rowIdx[eventDate.Unix()]] = df.Vals[colIdx][idx]
			}

			merged.ColNames = append(merged.ColNames, colName)
			merged.Vals = append(merged.Vals, col)
		}
	}

	return merged
}
