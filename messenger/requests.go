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

package messenger

import (
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/greenfolio/gf-api/common"
)

// ErrDisabled is returned by queue operations when no NATS server is
// configured. Event publication silently no-ops in that case but a queued
// request would be lost, so the caller gets told.
var ErrDisabled = errors.New("nats messaging is disabled")

// RecommendRequested is a queued request for an offline recommendation
// run. Queued requests are drained by the worker command.
type RecommendRequested struct {
	Query       string   `json:"query"`
	Tickers     []string `json:"tickers,omitempty"`
	RequestTime string   `json:"request_time"`
}

// QueueRecommendRequest enqueues a recommendation request on the requests
// subject.
func QueueRecommendRequest(query string, tickers []string) error {
	if jetStream == nil {
		return ErrDisabled
	}

	req := &RecommendRequested{
		Query:       query,
		Tickers:     tickers,
		RequestTime: time.Now().In(common.GetTimezone()).String(),
	}

	return publish(requestsSubject(), req)
}

// NextRecommendRequest fetches a single queued request. The returned
// message must be acked once the request has been processed. An empty
// queue returns nil without error.
func NextRecommendRequest() (*RecommendRequested, *nats.Msg, error) {
	if jetStream == nil {
		return nil, nil, ErrDisabled
	}

	sub, err := jetStream.PullSubscribe(requestsSubject(), viper.GetString("nats.requests_consumer"))
	if err != nil {
		log.Error().Err(err).Msg("could not connect to durable consumer (note: make sure the consumer already exists)")
		return nil, nil, err
	}

	msgs, err := sub.Fetch(1)
	if err != nil {
		if errors.Is(err, nats.ErrTimeout) {
			return nil, nil, nil
		}
		log.Error().Err(err).Msg("could not fetch queued requests")
		return nil, nil, err
	}

	if len(msgs) == 0 {
		return nil, nil, nil
	}

	msg := msgs[0]
	req := &RecommendRequested{}
	if err := json.Unmarshal(msg.Data, req); err != nil {
		// malformed messages are acked and dropped
		log.Error().Err(err).Msg("could not parse queued request")
		if ackErr := msg.Ack(); ackErr != nil {
			log.Error().Err(ackErr).Msg("could not ack malformed request")
		}
		return nil, nil, err
	}

	return req, msg, nil
}

func requestsSubject() string {
	if s := viper.GetString("nats.requests_subject"); s != "" {
		return s
	}
	return subject("recommend.requests")
}
