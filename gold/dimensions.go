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

package gold

import (
	"context"
	"fmt"
	"strings"
)

func (l *Layer) buildCalendar(ctx context.Context) (int64, error) {
	return l.store.Exec(ctx, `INSERT INTO gold.dim_tempo (id, data, ano, mes, dia, semana, trimestre, semestre)
SELECT
	new.id,
	new.data,
	year(new.data),
	month(new.data),
	day(new.data),
	week(new.data),
	quarter(new.data),
	CASE WHEN month(new.data) <= 6 THEN 1 ELSE 2 END
FROM silver.tempo AS new
LEFT JOIN gold.dim_tempo AS old ON old.id = new.id
WHERE old.id IS NULL
ORDER BY new.id`)
}

// appendDimension adds the distinct tuples of source that are not yet
// members of gold.<table>. NULL attributes compare equal.
func (l *Layer) appendDimension(ctx context.Context, table, source string, attrs []string) (int64, error) {
	matches := make([]string, len(attrs))
	for i, attr := range attrs {
		matches[i] = fmt.Sprintf("dim.%[1]s IS NOT DISTINCT FROM src.%[1]s", attr)
	}

	cols := strings.Join(attrs, ", ")
	query := fmt.Sprintf(`INSERT INTO gold.%[1]s (id, %[2]s)
SELECT m.max_id + row_number() OVER (ORDER BY %[3]s), %[3]s
FROM (SELECT DISTINCT %[2]s FROM %[4]s) AS src
CROSS JOIN (SELECT COALESCE(MAX(id), 0) AS max_id FROM gold.%[1]s) AS m
WHERE NOT EXISTS (
	SELECT 1 FROM gold.%[1]s AS dim WHERE %[5]s
)`, table, cols, "src."+strings.Join(attrs, ", src."), source, strings.Join(matches, " AND "))

	return l.store.Exec(ctx, query)
}

func (l *Layer) buildSecurities(ctx context.Context) (int64, error) {
	return l.appendDimension(ctx, "dim_acoes", "silver.cotacoes",
		[]string{"ticker", "nome", "logo", "setor", "tipo"})
}

func (l *Layer) buildTradeTypes(ctx context.Context) (int64, error) {
	return l.appendDimension(ctx, "dim_tipo", "silver.negociacoes",
		[]string{"tipo_ativo", "tipo_acao", "tipo_negociacao"})
}

func (l *Layer) buildUsers(ctx context.Context) (int64, error) {
	return l.appendDimension(ctx, "dim_usuarios", "silver.usuarios",
		[]string{"nome", "email"})
}
