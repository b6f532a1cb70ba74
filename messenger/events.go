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
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/greenfolio/gf-api/common"
)

// RecommendCompleted announces a finished recommendation run.
type RecommendCompleted struct {
	RunID       string  `json:"run_id"`
	Green       int     `json:"green"`
	Yellow      int     `json:"yellow"`
	Red         int     `json:"red"`
	Fitness     float64 `json:"fitness"`
	CompletedAt string  `json:"completed_at"`
}

// PricesRefreshed announces a completed price cache refresh.
type PricesRefreshed struct {
	NumTickers  int    `json:"num_tickers"`
	RefreshedAt string `json:"refreshed_at"`
}

// PublishRecommendCompleted sends the event to the recommend.completed
// subject; a no-op when messaging is disabled.
func PublishRecommendCompleted(event *RecommendCompleted) error {
	if jetStream == nil {
		return nil
	}

	if event.CompletedAt == "" {
		event.CompletedAt = time.Now().In(common.GetTimezone()).String()
	}

	return publish(subject("recommend.completed"), event)
}

// PublishPricesRefreshed sends the event to the prices.refreshed subject;
// a no-op when messaging is disabled.
func PublishPricesRefreshed(numTickers int) error {
	if jetStream == nil {
		return nil
	}

	event := &PricesRefreshed{
		NumTickers:  numTickers,
		RefreshedAt: time.Now().In(common.GetTimezone()).String(),
	}

	return publish(subject("prices.refreshed"), event)
}

func publish(subject string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("Subject", subject).Msg("could not serialize event to JSON")
		return err
	}

	if _, err := jetStream.Publish(subject, payload); err != nil {
		log.Error().Err(err).Str("Subject", subject).Msg("could not publish event")
		return err
	}

	log.Debug().Str("Subject", subject).Msg("published event")
	return nil
}

func subject(name string) string {
	if prefix := viper.GetString("nats.subject_prefix"); prefix != "" {
		return prefix + "." + name
	}
	return name
}
