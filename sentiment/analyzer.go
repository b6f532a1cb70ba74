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
	"strings"
	"unicode"
)

var positiveWords = []string{
	"beat", "beats", "bullish", "boost", "boosts", "exceed", "exceeds",
	"gain", "gains", "growth", "jump", "jumps", "outperform", "profit",
	"profits", "raise", "raises", "rally", "rallies", "rebound", "record",
	"soar", "soars", "strong", "surge", "surges", "upgrade", "upgraded",
	"win", "wins",
}

var negativeWords = []string{
	"bearish", "crash", "cut", "cuts", "decline", "declines", "downgrade",
	"downgraded", "drop", "drops", "fall", "falls", "fraud", "lawsuit",
	"layoff", "layoffs", "loss", "losses", "miss", "misses", "plunge",
	"plunges", "probe", "recall", "sink", "sinks", "slump", "slumps",
	"underperform", "warn", "warns", "weak",
}

type analyzer struct {
	positive map[string]bool
	negative map[string]bool
}

// NewAnalyzer creates a lexicon-based headline classifier.
func NewAnalyzer() *analyzer {
	a := &analyzer{
		positive: make(map[string]bool, len(positiveWords)),
		negative: make(map[string]bool, len(negativeWords)),
	}
	for _, word := range positiveWords {
		a.positive[word] = true
	}
	for _, word := range negativeWords {
		a.negative[word] = true
	}
	return a
}

// Analyze labels a single headline by counting lexicon hits. Equal counts,
// including zero hits, are neutral.
func (a *analyzer) Analyze(text string) Label {
	var pos, neg int
	for _, word := range tokenize(text) {
		if a.positive[word] {
			pos++
		}
		if a.negative[word] {
			neg++
		}
	}

	switch {
	case pos > neg:
		return Positive
	case neg > pos:
		return Negative
	default:
		return Neutral
	}
}

// Vote labels a ticker from the labels of its individual headlines by
// majority; ties are neutral.
func (a *analyzer) Vote(headlines []string) Label {
	var pos, neg int
	for _, headline := range headlines {
		switch a.Analyze(headline) {
		case Positive:
			pos++
		case Negative:
			neg++
		}
	}

	switch {
	case pos > neg:
		return Positive
	case neg > pos:
		return Negative
	default:
		return Neutral
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
