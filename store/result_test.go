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

package store

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var errNoCount = errors.New("driver cannot count rows")

type countingResult struct {
	n   int64
	err error
}

func (r countingResult) LastInsertId() (int64, error) { return 0, nil }
func (r countingResult) RowsAffected() (int64, error) { return r.n, r.err }

var _ = Describe("rowsAffected", func() {
	It("returns the driver count", func() {
		n, err := rowsAffected(countingResult{n: 7}, "DELETE FROM gold.fact_negociacoes")
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(7)))
	})

	It("reports a count the driver cannot provide", func() {
		_, err := rowsAffected(countingResult{err: errNoCount}, "DELETE FROM gold.fact_negociacoes")
		Expect(err).To(MatchError(errNoCount))
	})
})
