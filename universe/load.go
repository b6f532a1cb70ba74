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

package universe

import (
	"context"

	"github.com/spf13/viper"
)

// Load reads the universe from the configured source: the esg.file CSV
// when set, otherwise the esg.table database table. A source that yields
// no records returns ErrEmptyUniverse so a bad export cannot replace a
// working universe.
func Load(ctx context.Context) (*Universe, error) {
	var u *Universe
	var err error

	if fn := viper.GetString("esg.file"); fn != "" {
		u, err = FromCSV(fn)
	} else {
		u, err = FromDB(ctx, nil)
	}

	if err != nil {
		return nil, err
	}
	if u.Len() == 0 {
		return nil, ErrEmptyUniverse
	}

	return u, nil
}
