// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bronze

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/penny-vault/pvelt/data"
	"github.com/penny-vault/pvelt/store"
	"github.com/rs/zerolog/log"
)

// extendCalendar appends every day after the last stored day up to and
// including the processing date. Ids continue from the current maximum, so a
// day keeps the id it was first given.
func (l *Layer) extendCalendar(ctx context.Context) (int64, error) {
	var (
		maxID   sql.NullInt64
		maxDate sql.NullTime
	)

	if err := l.store.QueryRow(ctx, "SELECT MAX(id), MAX(data) FROM bronze.tempo").Scan(&maxID, &maxDate); err != nil {
		return 0, err
	}

	next := data.CalendarStart
	var baseID int64
	if maxDate.Valid {
		next = data.Day(maxDate.Time).AddDate(0, 0, 1)
		baseID = maxID.Int64
	}

	if next.After(l.asOf) {
		log.Debug().Time("LastDay", maxDate.Time).Msg("calendar already covers processing date")
		return 0, nil
	}

	query := fmt.Sprintf(`INSERT INTO bronze.tempo (id, data)
SELECT %d + row_number() OVER (ORDER BY d), d
FROM (
	SELECT CAST(t.d AS DATE) AS d
	FROM generate_series(%s, %s, INTERVAL 1 DAY) AS t(d)
) AS days`, baseID, timestampLiteral(next), timestampLiteral(l.asOf))

	return l.store.Exec(ctx, query)
}

func timestampLiteral(day time.Time) string {
	return "TIMESTAMP " + store.Quote(day.Format(data.DateLayout))
}
