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

package data_test

import (
	"io/fs"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvelt/data"
)

var _ = Describe("Parquet", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("keeps optional fields NULL", func() {
		price := 38.5
		fn := data.QuotesFile(dir, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
		Expect(fn).To(Equal(filepath.Join(dir, "brapi", "2024-03-15.parquet")))

		Expect(data.WriteParquet(fn, []data.RawQuote{
			{Stock: "PETR4", Close: &price, ExtractedDate: "2024-03-15"},
			{Stock: "VALE3", ExtractedDate: "2024-03-15"},
		})).To(Succeed())

		quotes, err := data.ReadParquet[data.RawQuote](fn)
		Expect(err).NotTo(HaveOccurred())
		Expect(quotes).To(HaveLen(2))
		Expect(*quotes[0].Close).To(Equal(38.5))
		Expect(quotes[1].Close).To(BeNil())
		Expect(quotes[1].Name).To(BeNil())
	})

	It("reports a missing file as not existing", func() {
		_, err := data.ReadParquet[data.RawUser](data.UsersFile(dir))
		Expect(err).To(MatchError(fs.ErrNotExist))
	})
})
