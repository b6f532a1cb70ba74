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

package sentiment

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/greenfolio/gf-api/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

type feedItem struct {
	Ticker   string `json:"ticker"`
	Headline string `json:"headline"`
}

type client struct {
	analyzer *analyzer
}

// NewClient creates a sentiment client that reads headlines from the
// configured feed and labels them with the lexicon analyzer.
func NewClient() *client {
	return &client{
		analyzer: NewAnalyzer(),
	}
}

// Labels returns a sentiment label for every requested ticker. Tickers
// without headlines, and every ticker when the feed is disabled or
// unreachable, label as neutral.
func (c *client) Labels(ctx context.Context, tickers []string) map[string]Label {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "sentiment.Labels")
	defer span.End()

	labels := make(map[string]Label, len(tickers))
	for _, ticker := range tickers {
		labels[strings.ToUpper(strings.TrimSpace(ticker))] = Neutral
	}

	if viper.GetBool("sentiment.disabled") {
		return labels
	}

	feedURL := viper.GetString("sentiment.feed_url")
	if feedURL == "" {
		return labels
	}

	span.SetAttributes(
		attribute.KeyValue{
			Key:   attribute.Key("Url"),
			Value: attribute.StringValue(feedURL),
		},
	)

	subLog := log.With().Str("Url", feedURL).Logger()

	items, err := fetchFeed(ctx, feedURL)
	if err != nil {
		span.RecordError(err)
		subLog.Warn().Stack().Err(err).Msg("could not load sentiment feed; labels default to neutral")
		return labels
	}

	headlines := make(map[string][]string, len(labels))
	for _, item := range items {
		ticker := strings.ToUpper(strings.TrimSpace(item.Ticker))
		if _, ok := labels[ticker]; !ok {
			continue
		}
		headlines[ticker] = append(headlines[ticker], item.Headline)
	}

	for ticker, texts := range headlines {
		labels[ticker] = c.analyzer.Vote(texts)
	}

	return labels
}

func fetchFeed(ctx context.Context, url string) ([]*feedItem, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "sentiment.fetchFeed")
	defer span.End()

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

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("sentiment feed returned invalid status code: %d", resp.StatusCode)
	}

	items := make([]*feedItem, 0, 64)
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, err
	}

	return items, nil
}
