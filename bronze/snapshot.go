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

	"github.com/penny-vault/pvelt/store"
)

// appendSnapshot inserts the staged rows of landing.<table> whose
// (ticker, extracted_date) is not yet in bronze.<table>. Repeated keys inside
// the batch keep their first occurrence. New ids continue from the current
// maximum.
func (l *Layer) appendSnapshot(ctx context.Context, table string, cols []store.Column) (int64, error) {
	query := fmt.Sprintf(`INSERT INTO bronze.%[1]s (id, %[2]s)
SELECT m.max_id + row_number() OVER (ORDER BY new.seq), %[3]s
FROM (
	SELECT * FROM landing.%[1]s
	QUALIFY row_number() OVER (PARTITION BY ticker, extracted_date ORDER BY seq) = 1
) AS new
CROSS JOIN (SELECT COALESCE(MAX(id), 0) AS max_id FROM bronze.%[1]s) AS m
LEFT JOIN bronze.%[1]s AS old
	ON old.ticker = new.ticker AND old.extracted_date = new.extracted_date
WHERE old.id IS NULL`, table, store.ColumnNames(cols, ""), store.ColumnNames(cols, "new"))

	var inserted int64
	err := l.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		inserted, err = store.TxExec(ctx, tx, query)
		return err
	})

	return inserted, err
}
