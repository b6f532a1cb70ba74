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

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// AddScalar adds the scalar value to all columns in dataframe df and returns a new dataframe
func (df *DataFrame) AddScalar(scalar float64) *DataFrame {
	df = df.Copy()

	for colIdx := range df.ColNames {
		for rowIdx := range df.Vals[colIdx] {
			df.Vals[colIdx][rowIdx] += scalar
		}
	}
	return df
}

// Div divides all columns in `df` by the corresponding column in `other` and returns a
// new dataframe. Panics if rows are not equal.
func (df *DataFrame) Div(other *DataFrame) *DataFrame {
	df = df.Copy()

	otherMap := make(map[string]int, len(other.ColNames))
	for idx, val := range other.ColNames {
		otherMap[val] = idx
	}

	for idx, colName := range df.ColNames {
		if otherIdx, ok := otherMap[colName]; ok {
			floats.Div(df.Vals[idx], other.Vals[otherIdx])
		}
	}
	return df
}

// Lag shifts the dataframe down by the specified number of rows, replacing
// shifted values with math.NaN(), and returns a new dataframe
func (df *DataFrame) Lag(n int) *DataFrame {
	df = df.Copy()
	prepend := make([]float64, n)
	for idx := range prepend {
		prepend[idx] = math.NaN()
	}

	for idx := range df.Vals {
		l := len(df.Vals[idx])
		df.Vals[idx] = append(prepend, df.Vals[idx]...)[:l] //nolint:makezero
	}
	return df
}

// PctChange computes the percentage change between each row and the row n
// periods before it, leaving NaN for the warm-up rows, and returns a new
// dataframe. PctChange(1) is the daily return series.
func (df *DataFrame) PctChange(n int) *DataFrame {
	if n <= 0 || n >= df.Len() {
		log.Error().Stack().Int("N", n).Int("NRows", df.Len()).Msg("pct change period must be: 0 < n < NRows")
		n = df.Len()
	}

	lagged := df.Lag(n)
	res := df.Div(lagged).AddScalar(-1.0)
	return res
}

// ColMean computes the arithmetic mean of each column, ignoring NaN rows,
// and returns the result as a map keyed by column name
func (df *DataFrame) ColMean() map[string]float64 {
	res := make(map[string]float64, len(df.ColNames))
	for colIdx, colName := range df.ColNames {
		vals := dropNaN(df.Vals[colIdx])
		if len(vals) == 0 {
			res[colName] = math.NaN()
			continue
		}
		res[colName] = stat.Mean(vals, nil)
	}
	return res
}

// ColStdDev computes the sample standard deviation of each column, ignoring
// NaN rows, and returns the result as a map keyed by column name
func (df *DataFrame) ColStdDev() map[string]float64 {
	res := make(map[string]float64, len(df.ColNames))
	for colIdx, colName := range df.ColNames {
		vals := dropNaN(df.Vals[colIdx])
		if len(vals) < 2 {
			res[colName] = math.NaN()
			continue
		}
		res[colName] = stat.StdDev(vals, nil)
	}
	return res
}

// RollingStdDev computes the sample standard deviation of each column over a
// trailing window of `lookback` rows. The resulting dataframe has the same
// length as the input with NaNs during the warm-up period.
func (df *DataFrame) RollingStdDev(lookback int) *DataFrame {
	df2 := df.Copy()
	if lookback <= 0 || lookback > df.Len() {
		log.Error().Stack().Int("Lookback", lookback).Int("NRows", df.Len()).Msg("lookback must be: 0 < lookback <= NRows")
		for colIdx := range df2.Vals {
			for rowIdx := range df2.Vals[colIdx] {
				df2.Vals[colIdx][rowIdx] = math.NaN()
			}
		}
		return df2
	}

	for colIdx := range df.Vals {
		for rowIdx := range df.Vals[colIdx] {
			if rowIdx < lookback-1 {
				df2.Vals[colIdx][rowIdx] = math.NaN()
				continue
			}
			window := df.Vals[colIdx][rowIdx-lookback+1 : rowIdx+1]
			df2.Vals[colIdx][rowIdx] = stat.StdDev(window, nil)
		}
	}
	return df2
}

func dropNaN(vals []float64) []float64 {
	res := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			res = append(res, v)
		}
	}
	return res
}
