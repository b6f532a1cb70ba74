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
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
)

// CachedFile describes one ticker file in the price cache.
type CachedFile struct {
	Ticker   string    `json:"ticker"`
	Rows     int       `json:"rows"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"modTime"`
	Checksum string    `json:"checksum"`
}

// CacheStore persists normalized price history as one CSV file per ticker
// under a root directory. Writes replace the whole file; the last writer
// wins. Missing files read as empty series.
type CacheStore struct {
	rootDir string
}

func NewCacheStore(rootDir string) *CacheStore {
	return &CacheStore{rootDir: rootDir}
}

// Path returns the cache file location for the given ticker.
func (store *CacheStore) Path(ticker string) string {
	return filepath.Join(store.rootDir, fmt.Sprintf("%s.csv", strings.ToUpper(ticker)))
}

// Load reads the cached series for ticker. A missing or malformed file
// reads as an empty series, not an error.
func (store *CacheStore) Load(ticker string) (*PriceSeries, error) {
	ticker = strings.ToUpper(ticker)

	body, err := os.ReadFile(store.Path(ticker))
	if err != nil {
		if os.IsNotExist(err) {
			return &PriceSeries{Ticker: ticker}, nil
		}
		return nil, err
	}

	series, err := parsePriceCSV(body, ticker)
	if err != nil {
		log.Warn().Err(err).Str("Ticker", ticker).Str("FileName", store.Path(ticker)).Msg("cached price file is malformed; treating as empty")
		return &PriceSeries{Ticker: ticker}, nil
	}

	return series, nil
}

// Save writes the series to disk, fully replacing any existing file for
// the ticker. The write is skipped when the existing content already has
// an identical checksum.
func (store *CacheStore) Save(series *PriceSeries) error {
	if err := os.MkdirAll(store.rootDir, 0o755); err != nil {
		return err
	}

	body := encodePriceCSV(series)
	sum := blake3.Sum256(body)
	fn := store.Path(series.Ticker)

	if existing, err := os.ReadFile(fn); err == nil {
		if blake3.Sum256(existing) == sum {
			log.Debug().Str("Ticker", series.Ticker).Msg("cached content unchanged; skipping write")
			return nil
		}
	}

	return os.WriteFile(fn, body, 0o644)
}

// Delete removes the cached file for ticker. Deleting a ticker that is not
// cached is not an error.
func (store *CacheStore) Delete(ticker string) error {
	err := os.Remove(store.Path(ticker))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// List describes every price file currently in the cache, ordered by
// ticker.
func (store *CacheStore) List() ([]*CachedFile, error) {
	entries, err := os.ReadDir(store.rootDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*CachedFile{}, nil
		}
		return nil, err
	}

	files := make([]*CachedFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		body, err := os.ReadFile(filepath.Join(store.rootDir, entry.Name()))
		if err != nil {
			continue
		}

		rows := bytes.Count(body, []byte{'\n'}) - 1
		if rows < 0 {
			rows = 0
		}

		sum := blake3.Sum256(body)
		files = append(files, &CachedFile{
			Ticker:   strings.TrimSuffix(entry.Name(), ".csv"),
			Rows:     rows,
			Size:     info.Size(),
			ModTime:  info.ModTime(),
			Checksum: fmt.Sprintf("%x", sum),
		})
	}

	sort.Slice(files, func(a, b int) bool {
		return files[a].Ticker < files[b].Ticker
	})

	return files, nil
}
