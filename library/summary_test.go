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

package library_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvelt/data"
	"github.com/penny-vault/pvelt/library"
	"github.com/penny-vault/pvelt/pipeline"
	"github.com/penny-vault/pvelt/store"
)

var _ = Describe("Library", func() {
	var (
		ctx context.Context
		s   *store.Store
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		s, err = store.Open(ctx, filepath.Join(GinkgoT().TempDir(), "pvelt.duckdb"))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(s.Close)
	})

	It("describes an empty store", func() {
		summary, err := library.New(s).Summary(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary).To(ContainSubstring("Last Run: Never"))
		Expect(summary).To(ContainSubstring("not built"))
		Expect(summary).To(ContainSubstring("Total Records: 0"))
	})

	It("lists table counts and recent runs", func() {
		asOf := data.CalendarStart.AddDate(0, 0, 2)
		_, err := pipeline.New(s, GinkgoT().TempDir(), data.DefaultScreen, asOf).Run(ctx)
		Expect(err).NotTo(HaveOccurred())

		counts, err := library.New(s).LayerCounts(ctx, data.LayerGold)
		Expect(err).NotTo(HaveOccurred())
		Expect(counts).To(HaveLen(len(data.Tables[data.LayerGold])))
		Expect(counts["dim_tempo"]).To(Equal(int64(3)))

		summary, err := library.New(s).Summary(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary).To(ContainSubstring("dim_tempo: 3 rows"))
		Expect(summary).To(ContainSubstring("## Recent runs"))
		Expect(summary).To(ContainSubstring(asOf.Format(data.DateLayout) + " success"))
		Expect(summary).NotTo(ContainSubstring("Last Run: Never"))
	})
})
