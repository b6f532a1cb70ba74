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

// Package messenger publishes run lifecycle events to NATS JetStream.
// Publication is entirely optional; when no server is configured the
// publish functions are no-ops so the rest of the system never has to
// care whether messaging is wired up.
package messenger

import (
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var natsConnection *nats.Conn
var jetStream nats.JetStreamContext

// Initialize connects to the configured NATS server and creates the
// jetstream context. When nats.url is unset messaging stays disabled and
// Initialize returns nil.
func Initialize() error {
	url := viper.GetString("nats.url")
	if url == "" {
		log.Info().Msg("nats.url is not set; event publication is disabled")
		return nil
	}

	credentialsFile := viper.GetString("nats.credentials")
	log.Info().Str("NATSServer", url).Str("Credentials", credentialsFile).Msg("connecting to NATS server")

	opts := []nats.Option{}
	if credentialsFile != "" {
		opts = append(opts, nats.UserCredentials(credentialsFile))
	}

	var err error
	if natsConnection, err = nats.Connect(url, opts...); err != nil {
		log.Error().Err(err).Msg("could not connect to NATS server")
		return err
	}

	if jetStream, err = natsConnection.JetStream(nats.PublishAsyncMaxPending(256)); err != nil {
		log.Error().Err(err).Msg("could not create jetstream context")
		return err
	}

	return nil
}

// Enabled reports whether a jetstream context is available.
func Enabled() bool {
	return jetStream != nil
}

// Close drains the NATS connection.
func Close() {
	if natsConnection != nil {
		if err := natsConnection.Drain(); err != nil {
			log.Error().Err(err).Msg("could not drain NATS connection")
		}
		natsConnection = nil
		jetStream = nil
	}
}
