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

package cmd

import (
	"encoding/base64"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/greenfolio/gf-api/common"
)

func init() {
	rootCmd.AddCommand(apikeyCmd)
}

var apikeyCmd = &cobra.Command{
	Use:   "apikey <userID>",
	Args:  cobra.ExactArgs(1),
	Short: "Mint an encrypted api key for the given user",
	Long: `Mint an api key that the server accepts as the apikey query parameter
or the X-Gf-Api header. Keys are AES-GCM encrypted with the secret key so
the server must be configured with the same GF_SECRET.`,
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()

		// the payload mirrors the sub claim of a JWT so handlers see the
		// same userID either way
		jsonBytes, err := json.Marshal(map[string]string{"sub": args[0]})
		if err != nil {
			log.Fatal().Err(err).Msg("could not marshal api token")
		}

		encrypted, err := common.Encrypt(jsonBytes)
		if err != nil {
			log.Fatal().Err(err).Msg("could not encrypt api token")
		}

		fmt.Println(base64.URLEncoding.EncodeToString(encrypted))
	},
}
