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
	"database/sql/driver"
	"errors"
	"io/fs"
	"strings"

	"github.com/penny-vault/pvelt/data"
	"github.com/penny-vault/pvelt/store"
	"github.com/rs/zerolog/log"
)

var userColumns = []store.Column{
	{Name: "id", Type: "BIGINT"},
	{Name: "nome", Type: "VARCHAR"},
	{Name: "email", Type: "VARCHAR"},
	{Name: "extracted_date", Type: "DATE"},
}

// loadUsers upserts the users sheet by id. The last row of an id in the sheet
// wins. A row whose email belongs to a different user, in the sheet or in the
// stored users that are not being replaced, is rejected and leaves the stored
// row of its id untouched.
func (l *Layer) loadUsers(ctx context.Context) (int64, error) {
	fn := data.UsersFile(l.landingPath)
	raw, err := data.ReadParquet[data.RawUser](fn)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("FileName", fn).Msg("no users extract found, keeping existing users")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	latest := latestUserRows(raw)

	emails := make(map[string]int64, len(latest))
	rows := make([][]driver.Value, 0, len(latest))
	for _, idx := range latest {
		user := raw[idx]
		email := strings.ToLower(strings.TrimSpace(user.Email))
		if owner, ok := emails[email]; ok {
			log.Warn().Object("User", user).Int64("OwnerID", owner).Msg("skipping user with duplicate email")
			continue
		}
		emails[email] = user.ID

		rows = append(rows, []driver.Value{
			int64(idx),
			user.ID,
			store.Text(user.Nome),
			strings.TrimSpace(user.Email),
			l.extractedDate(user.ExtractedDate),
		})
	}

	if err := l.stage(ctx, "usuarios", userColumns, rows); err != nil {
		return 0, err
	}

	var inserted int64
	err = l.store.WithTx(ctx, func(tx *sql.Tx) error {
		// a rejected row keeps the stored row of its id, whose email may in
		// turn conflict with another staged row
		for {
			n, err := store.TxExec(ctx, tx, `DELETE FROM landing.usuarios AS staged
WHERE EXISTS (
	SELECT 1 FROM bronze.usuarios AS old
	WHERE old.id <> staged.id
		AND lower(old.email) = lower(staged.email)
		AND old.id NOT IN (SELECT id FROM landing.usuarios)
)`)
			if err != nil {
				return err
			}
			if n == 0 {
				break
			}
		}

		if _, err := store.TxExec(ctx, tx, "DELETE FROM bronze.usuarios WHERE id IN (SELECT id FROM landing.usuarios)"); err != nil {
			return err
		}

		inserted, err = store.TxExec(ctx, tx, `INSERT INTO bronze.usuarios (id, nome, email, extracted_date)
SELECT id, nome, email, extracted_date
FROM landing.usuarios
ORDER BY seq`)
		return err
	})
	if err != nil {
		return 0, err
	}

	if rejected := int64(len(raw)) - inserted; rejected > 0 {
		log.Warn().Int64("NumRejected", rejected).Msg("user rows not applied, invalid, superseded or email belongs to another user")
	}

	return inserted, nil
}

// latestUserRows returns the index of the last valid row of each id, in
// sheet order
func latestUserRows(raw []data.RawUser) []int {
	last := make(map[int64]int, len(raw))
	for idx, user := range raw {
		if user.ID <= 0 || strings.TrimSpace(user.Email) == "" {
			log.Warn().Object("User", user).Msg("skipping user without id or email")
			continue
		}
		last[user.ID] = idx
	}

	indexes := make([]int, 0, len(last))
	for idx, user := range raw {
		if pos, ok := last[user.ID]; ok && pos == idx {
			indexes = append(indexes, idx)
		}
	}

	return indexes
}
