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

// Package portfolio searches for allocation weights over a candidate set
// with an evolutionary heuristic and summarizes holding-period
// performance. The optimizer is a bounded stochastic search, not a convex
// solver; it trades optimality guarantees for robustness on arbitrary
// scalarized inputs.
package portfolio

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrNoCandidates = errors.New("no candidate tickers to allocate")
)

const (
	simplexEpsilon  = 1e-9
	mutationStdDev  = 0.1
	weightPrecision = 1000
)

// Options control the evolutionary search.
type Options struct {
	PopulationSize int
	Generations    int
	EliteFraction  float64
	MutationRate   float64
}

// DefaultOptions reads the allocator configuration, falling back to the
// standard population of 50 evolved over 100 generations.
func DefaultOptions() Options {
	opts := Options{
		PopulationSize: viper.GetInt("allocator.population"),
		Generations:    viper.GetInt("allocator.generations"),
		EliteFraction:  viper.GetFloat64("allocator.elite_fraction"),
		MutationRate:   viper.GetFloat64("allocator.mutation_rate"),
	}

	if opts.PopulationSize <= 0 {
		opts.PopulationSize = 50
	}
	if opts.Generations <= 0 {
		opts.Generations = 100
	}
	if opts.EliteFraction <= 0 {
		opts.EliteFraction = 0.2
	}
	if opts.MutationRate <= 0 {
		opts.MutationRate = 0.1
	}

	return opts
}

// Optimize searches for the weight vector maximizing
//
//	Σ wᵢ·returnᵢ − 0.5·Σ wᵢ·riskᵢ + 0.3·Σ wᵢ·sentimentᵢ
//
// over the simplex (non-negative weights summing to 1). Tickers are taken
// from the returns map in sorted order; a ticker missing from sentiment
// scores 0. rng may be nil, in which case a time-seeded source is used; a
// fixed-seed rng makes the search fully reproducible. The returned weights
// are rounded to three decimals for presentation; the fitness is the raw
// value of the best candidate.
func Optimize(rng *rand.Rand, returns map[string]float64, risks map[string]float64, sentiment map[string]float64, opts Options) (map[string]float64, float64, error) {
	if len(returns) == 0 {
		return nil, 0, ErrNoCandidates
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec
	}
	if opts.PopulationSize < 1 {
		opts.PopulationSize = 1
	}

	tickers := make([]string, 0, len(returns))
	for ticker := range returns {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	n := len(tickers)

	returnVec := make([]float64, n)
	riskVec := make([]float64, n)
	sentimentVec := make([]float64, n)
	for idx, ticker := range tickers {
		returnVec[idx] = returns[ticker]
		riskVec[idx] = risks[ticker]
		sentimentVec[idx] = sentiment[ticker]
	}

	fitness := func(weights []float64) float64 {
		return floats.Dot(weights, returnVec) - 0.5*floats.Dot(weights, riskVec) + 0.3*floats.Dot(weights, sentimentVec)
	}

	population := make([][]float64, opts.PopulationSize)
	for idx := range population {
		candidate := make([]float64, n)
		for gene := range candidate {
			candidate[gene] = rng.Float64()
		}
		normalize(candidate)
		population[idx] = candidate
	}

	eliteCount := int(math.Ceil(opts.EliteFraction * float64(opts.PopulationSize)))
	if eliteCount < 1 {
		eliteCount = 1
	}
	if eliteCount > opts.PopulationSize {
		eliteCount = opts.PopulationSize
	}

	for generation := 0; generation < opts.Generations; generation++ {
		elites := selectElites(population, fitness, eliteCount)

		children := make([][]float64, 0, opts.PopulationSize-eliteCount)
		for len(children) < opts.PopulationSize-eliteCount {
			parent1, parent2 := pickParents(rng, elites)
			child := crossover(rng, parent1, parent2)
			if rng.Float64() < opts.MutationRate {
				child[rng.Intn(n)] += rng.NormFloat64() * mutationStdDev
			}
			normalize(child)
			children = append(children, child)
		}

		population = append(elites, children...)
	}

	bestIdx := 0
	bestFitness := math.Inf(-1)
	for idx, candidate := range population {
		if score := fitness(candidate); score > bestFitness {
			bestFitness = score
			bestIdx = idx
		}
	}

	weights := make(map[string]float64, n)
	for idx, ticker := range tickers {
		weights[ticker] = math.Round(population[bestIdx][idx]*weightPrecision) / weightPrecision
	}

	log.Debug().
		Int("NumTickers", n).
		Int("Generations", opts.Generations).
		Float64("BestFitness", bestFitness).
		Msg("allocation search finished")

	return weights, bestFitness, nil
}

// normalize projects a candidate onto the simplex in place: negatives clip
// to zero and the vector divides by its sum plus a small epsilon, so every
// candidate sums to one even when all genes collapse to zero.
func normalize(weights []float64) {
	var sum float64
	for idx, w := range weights {
		if w < 0 {
			weights[idx] = 0
			continue
		}
		sum += w
	}

	sum += simplexEpsilon
	for idx := range weights {
		weights[idx] /= sum
	}
}

// selectElites returns the top count candidates by fitness, best first.
// Ties keep the earlier candidate.
func selectElites(population [][]float64, fitness func([]float64) float64, count int) [][]float64 {
	scores := make([]float64, len(population))
	for idx, candidate := range population {
		scores[idx] = fitness(candidate)
	}

	order := make([]int, len(population))
	for idx := range order {
		order[idx] = idx
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	elites := make([][]float64, count)
	for idx := 0; idx < count; idx++ {
		elites[idx] = population[order[idx]]
	}
	return elites
}

// pickParents draws two distinct elites when possible; a lone elite pairs
// with itself and crossover degenerates to a copy.
func pickParents(rng *rand.Rand, elites [][]float64) ([]float64, []float64) {
	if len(elites) == 1 {
		return elites[0], elites[0]
	}

	first := rng.Intn(len(elites))
	second := rng.Intn(len(elites) - 1)
	if second >= first {
		second++
	}
	return elites[first], elites[second]
}

// crossover splices two parents at a uniformly random cut in [1, n-1].
// Single-gene candidates copy the first parent.
func crossover(rng *rand.Rand, parent1 []float64, parent2 []float64) []float64 {
	n := len(parent1)
	child := make([]float64, n)
	if n == 1 {
		child[0] = parent1[0]
		return child
	}

	cut := 1 + rng.Intn(n-1)
	copy(child[:cut], parent1[:cut])
	copy(child[cut:], parent2[cut:])
	return child
}
