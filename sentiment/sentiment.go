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

// Package sentiment labels tickers as positive, neutral, or negative from
// recent headline text. Labels degrade to neutral when the feed is
// unavailable; sentiment is advisory and never blocks a recommendation run.
package sentiment

// Label is the sentiment classification for a single ticker.
type Label string

const (
	Positive Label = "positive"
	Neutral  Label = "neutral"
	Negative Label = "negative"
)

// Score maps a label onto the numeric scale used by the allocator.
func Score(label Label) float64 {
	switch label {
	case Positive:
		return 1
	case Negative:
		return -1
	default:
		return 0
	}
}
