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

package recommend

import (
	"strings"
	"unicode"
)

// Preferences are the user's requested profile. ESG follows the risk-score
// convention: a "Low" ESG preference asks for low ESG risk, the good end
// of the scale.
type Preferences struct {
	ESG      Category `json:"esg"`
	Risk     Category `json:"risk"`
	Industry string   `json:"industry"`
}

type sectorSynonyms struct {
	label    string
	synonyms []string
}

// Evaluated in order; the first matching synonym wins.
var sectorTable = []sectorSynonyms{
	{"Technology", []string{
		"tech", "technology", "software", "saas", "cloud", "semiconductor",
		"semiconductors", "chip", "chips", "internet", "electronics",
		"computer", "computers",
	}},
	{"Healthcare", []string{
		"health", "healthcare", "health care", "biotech", "biotechnology",
		"pharma", "pharmaceutical", "pharmaceuticals", "medical",
	}},
	{"Energy", []string{
		"energy", "oil", "gas", "renewable", "renewables", "solar", "wind",
	}},
	{"Consumer Cyclical", []string{
		"retail", "ecommerce", "e commerce", "automobile", "auto", "apparel",
		"restaurants", "travel", "leisure",
	}},
	{"Consumer Staples", []string{
		"staples", "beverages", "food", "tobacco", "grocery",
	}},
	{"Industrials", []string{
		"industrial", "industrials", "aerospace", "defense",
		"transportation", "machinery", "construction",
	}},
	{"Materials", []string{
		"materials", "chemicals", "metals", "mining", "packaging",
	}},
	{"Real Estate", []string{
		"real estate", "reit", "reits", "property", "properties",
	}},
	{"Utilities", []string{
		"utility", "utilities",
	}},
	{"Communication Services", []string{
		"communication", "communications", "telecom", "telecommunications",
		"media", "entertainment",
	}},
	{"Financial Services", []string{
		"finance", "financial", "financials", "bank", "banks", "banking",
		"insurance", "brokerage", "wealth",
	}},
}

var noFilterPhrases = []string{
	"any industry", "any industries", "any sector", "any sectors",
	"all industry", "all industries", "all sector", "all sectors",
}

// ParseQuery extracts preferences from free text with keyword rules.
// Unmatched dimensions default to Medium; an unmatched industry stays
// empty (no filter). Structured API requests bypass this entirely.
func ParseQuery(text string) *Preferences {
	normalized := normalizeQuery(text)

	prefs := &Preferences{
		ESG:      Medium,
		Risk:     Medium,
		Industry: detectIndustry(normalized),
	}

	switch {
	case containsPhrase(normalized, "high esg", "strong esg", "good esg"):
		prefs.ESG = High
	case containsPhrase(normalized, "low esg", "poor esg", "weak esg"):
		prefs.ESG = Low
	}

	switch {
	case containsPhrase(normalized, "low risk", "conservative", "safe", "safety"):
		prefs.Risk = Low
	case containsPhrase(normalized, "high risk", "risky", "aggressive", "speculative"):
		prefs.Risk = High
	}

	return prefs
}

func detectIndustry(normalized string) string {
	if containsPhrase(normalized, noFilterPhrases...) {
		return ""
	}

	for _, sector := range sectorTable {
		if containsPhrase(normalized, sector.synonyms...) {
			return sector.label
		}
	}

	return ""
}

// normalizeQuery lowercases, strips everything but letters and digits, and
// collapses runs of whitespace to single spaces.
func normalizeQuery(text string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)

	return strings.Join(strings.Fields(mapped), " ")
}

// containsPhrase reports whether any phrase occurs in normalized on word
// boundaries.
func containsPhrase(normalized string, phrases ...string) bool {
	padded := " " + normalized + " "
	for _, phrase := range phrases {
		if strings.Contains(padded, " "+phrase+" ") {
			return true
		}
	}
	return false
}
