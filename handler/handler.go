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

// Package handler implements the HTTP endpoints of the recommendation API.
// Handlers read their shared services through a package-level dependency
// snapshot installed by the serve command; the universe and sentiment view
// is swapped atomically when the scheduled reload runs.
package handler

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/greenfolio/gf-api/data"
	"github.com/greenfolio/gf-api/runlog"
	"github.com/greenfolio/gf-api/sentiment"
	"github.com/greenfolio/gf-api/universe"
)

// RunRepository is the slice of the run log the API reads and writes.
type RunRepository interface {
	Save(ctx context.Context, row *runlog.Row) error
	Recent(ctx context.Context, limit int) ([]*runlog.Row, error)
	Get(ctx context.Context, id uuid.UUID) (*runlog.Row, error)
}

// Deps carries the shared services every handler reads. Handlers take a
// snapshot once per request; a Deps value is never mutated after install.
type Deps struct {
	Manager  *data.Manager
	Universe *universe.Universe
	Labels   map[string]sentiment.Label
	Runs     RunRepository
}

var (
	depsMu      sync.RWMutex
	currentDeps *Deps
)

// SetDeps installs the dependency snapshot handlers read from.
func SetDeps(deps *Deps) {
	depsMu.Lock()
	defer depsMu.Unlock()
	currentDeps = deps
}

// UpdateUniverse swaps in a freshly loaded universe and sentiment view
// without touching the other services. In-flight requests keep the
// snapshot they started with.
func UpdateUniverse(u *universe.Universe, labels map[string]sentiment.Label) {
	depsMu.Lock()
	defer depsMu.Unlock()

	next := &Deps{}
	if currentDeps != nil {
		*next = *currentDeps
	}
	next.Universe = u
	next.Labels = labels
	currentDeps = next
}

func getDeps() *Deps {
	depsMu.RLock()
	defer depsMu.RUnlock()
	return currentDeps
}
