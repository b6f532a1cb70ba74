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

package universe_test

import (
	"context"
	"errors"

	"github.com/greenfolio/gf-api/database"
	"github.com/greenfolio/gf-api/pgxmockhelper"
	"github.com/greenfolio/gf-api/universe"
	"github.com/pashagolub/pgxmock"
	"github.com/spf13/viper"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("FromDB", func() {
	var (
		dbPool pgxmock.PgxConnIface
		ctx    context.Context
	)

	BeforeEach(func() {
		var err error
		dbPool, err = pgxmock.NewConn()
		Expect(err).To(BeNil())
		database.SetPool(dbPool)

		viper.Set("esg.table", "esg_scores")
		ctx = context.Background()
	})

	Context("when the esg table has rows", func() {
		It("loads the universe", func() {
			pgxmockhelper.MockUniverseQuery(dbPool, "testdata/esg_scores.csv")

			subject, err := universe.FromDB(ctx, nil)
			Expect(err).To(BeNil())

			Expect(subject.Len()).To(Equal(3))
			Expect(subject.Tickers()).To(Equal([]string{"AAPL", "MSFT", "XOM"}))

			record, ok := subject.Record("MSFT")
			Expect(ok).To(BeTrue())
			Expect(record.Name).To(Equal("Microsoft Corp"))
			Expect(record.Sector).To(Equal("Technology"))
			Expect(record.ESGScore).To(Equal(15.2))
			Expect(record.MarketCap).To(Equal(2.1e12))

			Expect(dbPool.ExpectationsWereMet()).To(Succeed())
		})
	})

	Context("when the query fails", func() {
		It("rolls back and returns the error", func() {
			dbPool.ExpectBegin()
			dbPool.ExpectQuery(`select (.+) from "esg_scores"`).WillReturnError(errors.New("relation does not exist"))
			dbPool.ExpectRollback()

			_, err := universe.FromDB(ctx, nil)
			Expect(err).To(HaveOccurred())
			Expect(dbPool.ExpectationsWereMet()).To(Succeed())
		})
	})

	It("rejects a malformed where clause", func() {
		_, err := universe.FromDB(ctx, map[string]string{"sector": "Technology"})
		Expect(err).To(HaveOccurred())
	})
})
