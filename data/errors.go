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

import "errors"

var (
	ErrNoCoverage       = errors.New("source has no coverage for ticker")
	ErrUnresolvedSchema = errors.New("no resolvable date or price column")
	ErrEmptyMatrix      = errors.New("no tickers with usable price data")
	ErrUnknownMode      = errors.New("unknown source order mode")
)
