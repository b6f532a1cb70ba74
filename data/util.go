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
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/greenfolio/gf-api/common"
	"github.com/rs/zerolog/log"
)

// partitionArray breaks xs into chunks of chunkSize
func partitionArray(xs []string, chunkSize int) [][]string {
	if len(xs) == 0 {
		return nil
	}
	divided := make([][]string, (len(xs)+chunkSize-1)/chunkSize)
	prev := 0
	i := 0
	till := len(xs) - chunkSize
	for prev < till {
		next := prev + chunkSize
		divided[i] = xs[prev:next]
		prev = next
		i++
	}
	divided[i] = xs[prev:]
	return divided
}

// cachedHTTPGet downloads url, memoizing the response body through the
// common cache layer so repeated requests within the TTL do not re-hit the
// provider.
func cachedHTTPGet(ctx context.Context, url string) ([]byte, error) {
	if body, err := common.CacheGet(url); err == nil && len(body) > 0 {
		return body, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoCoverage
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("request returned invalid status code: %d", resp.StatusCode)
	}

	if err := common.CacheSet(url, body); err != nil {
		log.Warn().Err(err).Str("Url", url).Msg("could not cache response body")
	}

	return body, nil
}

// periodStart converts a lookback period string like 6mo, 2y, or 90d into
// the start date for a request ending at end. Unparseable periods fall
// back to 5 years.
func periodStart(end time.Time, period string) time.Time {
	period = strings.ToLower(strings.TrimSpace(period))

	switch {
	case strings.HasSuffix(period, "mo"):
		if n, err := strconv.Atoi(strings.TrimSuffix(period, "mo")); err == nil {
			return end.AddDate(0, -n, 0)
		}
	case strings.HasSuffix(period, "y"):
		if n, err := strconv.Atoi(strings.TrimSuffix(period, "y")); err == nil {
			return end.AddDate(-n, 0, 0)
		}
	case strings.HasSuffix(period, "d"):
		if n, err := strconv.Atoi(strings.TrimSuffix(period, "d")); err == nil {
			return end.AddDate(0, 0, -n)
		}
	}

	return end.AddDate(-5, 0, 0)
}

// periodForLookback picks a download period wide enough to cover lookback
// trading days with headroom for holidays and thin listings.
func periodForLookback(lookbackDays int) string {
	switch {
	case lookbackDays <= 260:
		return "2y"
	case lookbackDays <= 520:
		return "3y"
	default:
		return "5y"
	}
}
