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

package filter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/greenfolio/gf-api/database"
	"github.com/jackc/pgsql"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog/log"
)

// BuildQuery assembles a parametrized select statement. fields are
// sanitized identifiers; safeFields are trusted SQL expressions added
// verbatim. where clauses take the form [OP].[value], e.g. industry =>
// ilike.%software%.
func BuildQuery(from string, fields []string, safeFields []string, where map[string]string, order string) (string, []interface{}, error) {
	if strings.Compare(from, "") == 0 {
		return "", nil, errors.New("'from' cannot be empty")
	}
	stmt := &pgsql.SelectStatement{}
	for _, ff := range fields {
		stmt.Select(pgx.Identifier{ff}.Sanitize())
	}

	for _, ff := range safeFields {
		stmt.Select(ff)
	}

	stmt.From(pgx.Identifier{from}.Sanitize())

	for k, v := range where {
		p := strings.SplitN(v, ".", 2)
		if len(p) != 2 {
			return "", nil, errors.New("where clauses must take the form [OP].[value]")
		}
		op, val := p[0], p[1]
		k = pgx.Identifier{k}.Sanitize()
		switch op {
		case "eq":
			stmt.Where(fmt.Sprintf("%s = ?", k), val)
		case "gt":
			stmt.Where(fmt.Sprintf("%s > ?", k), val)
		case "gte":
			stmt.Where(fmt.Sprintf("%s >= ?", k), val)
		case "lt":
			stmt.Where(fmt.Sprintf("%s < ?", k), val)
		case "lte":
			stmt.Where(fmt.Sprintf("%s <= ?", k), val)
		case "neq":
			stmt.Where(fmt.Sprintf("%s <> ?", k), val)
		case "like":
			stmt.Where(fmt.Sprintf("%s like ?", k), val)
		case "ilike":
			stmt.Where(fmt.Sprintf("%s ilike ?", k), val)
		case "in":
			stmt.Where(fmt.Sprintf("%s in ?", k), val)
		default:
			return "", nil, errors.New("unrecognized operator")
		}
	}

	if order != "" {
		stmt.Order(order)
	}

	sql, args := pgsql.Build(stmt)
	return sql, args, nil
}

// SecurityFields are the esg_scores columns exposed through the API.
var SecurityFields = []string{"ticker", "name", "sector", "industry", "esg_score", "market_cap"}

// SecuritiesJSON queries esg_scores with the given where clauses and
// returns the matching rows as a JSON array. An empty result set returns
// the empty array, not null.
func SecuritiesJSON(ctx context.Context, where map[string]string) ([]byte, error) {
	sql, args, err := BuildQuery("esg_scores", SecurityFields, []string{}, where, "ticker ASC")
	if err != nil {
		log.Warn().Err(err).Msg("could not build securities query")
		return nil, err
	}

	trx, err := database.Trx(ctx)
	if err != nil {
		log.Warn().Stack().Err(err).Msg("could not get database transaction")
		return nil, err
	}

	var j *string
	err = trx.QueryRow(ctx, fmt.Sprintf(`
	select array_to_json(array_agg(row_to_json(tbl))) as res
    from (
		%s
    ) tbl
	`, sql), args...).Scan(&j)
	if err != nil {
		log.Warn().Stack().Err(err).Msg("securities query failed")
		if err := trx.Rollback(ctx); err != nil {
			log.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	if err := trx.Commit(ctx); err != nil {
		log.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	if j == nil {
		return []byte("[]"), nil
	}
	return []byte(*j), nil
}
