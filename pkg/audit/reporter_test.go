/*
 * Copyright 2026 The Backoffice Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package audit_test

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/bizsuite/backoffice/pkg/audit"
	"github.com/bizsuite/backoffice/pkg/util"
	"github.com/bizsuite/backoffice/storage/memory"

	. "github.com/onsi/ginkgo"
	"github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

// statsStore counts the calls of the statistics push-down
type statsStore struct {
	*memory.AuditStore
	calls int
}

func (s *statsStore) Stats(ctx context.Context, eventType string) ([]audit.DocumentStats, error) {
	s.calls++
	return nil, nil
}

// queryOnly hides the statistics push-down of the wrapped store
type queryOnly struct {
	audit.Store
}

// growingStore inserts a newer event before every query, shifting older events into later pages
type growingStore struct {
	*memory.AuditStore
	queries int
}

func (s *growingStore) Query(ctx context.Context, filter audit.Filter, page audit.Page) ([]*audit.Event, int, error) {
	s.queries++
	err := s.AuditStore.Insert(ctx, &audit.Event{
		ID:        fmt.Sprintf("late-%d", s.queries),
		UserID:    "late",
		EventType: "View document",
		Details:   []byte(`{}`),
		Timestamp: time.Date(2027, 1, 1, 0, 0, s.queries, 0, time.UTC),
	})
	if err != nil {
		return nil, 0, err
	}
	return s.AuditStore.Query(ctx, filter, page)
}

var _ = Describe("Reporter", func() {
	var (
		ctx      context.Context
		store    *memory.AuditStore
		settings *audit.Settings
		reporter *audit.Reporter
		base     time.Time
	)

	insert := func(eventType, userID, details string, offset time.Duration) {
		Expect(store.Insert(ctx, &audit.Event{
			ID:        fmt.Sprintf("%s-%d", eventType, store.Len()),
			UserID:    userID,
			EventType: eventType,
			Details:   []byte(details),
			Timestamp: base.Add(offset),
		})).To(Succeed())
	}

	BeforeEach(func() {
		ctx = context.Background()
		store = memory.NewAuditStore()
		settings = audit.DefaultSettings()
		reporter = audit.NewReporter(store, settings)
		base = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	})

	Describe("ListEvents", func() {
		It("returns the second page of 25 login events", func() {
			for i := 0; i < 25; i++ {
				insert("login", "u", `{}`, time.Duration(i)*time.Minute)
			}
			result, err := reporter.ListEvents(ctx, audit.Filter{EventType: "login"}, 2, 10)
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Data).To(HaveLen(10))
			Expect(result.Pagination).To(Equal(audit.Pagination{Total: 25, Page: 2, Limit: 10, TotalPages: 3}))
			Expect(result.Data[0].Timestamp).To(Equal(base.Add(14 * time.Minute)))
		})

		table.DescribeTable("computes the number of pages",
			func(total, limit, pages int) {
				for i := 0; i < total; i++ {
					insert("login", "u", `{}`, time.Duration(i)*time.Second)
				}
				result, err := reporter.ListEvents(ctx, audit.Filter{}, 1, limit)
				Expect(err).ToNot(HaveOccurred())
				Expect(result.Pagination.TotalPages).To(Equal(pages))
				Expect(len(result.Data)).To(BeNumerically("<=", limit))
			},
			table.Entry("no events", 0, 10, 0),
			table.Entry("one partial page", 3, 10, 1),
			table.Entry("exact pages", 20, 10, 2),
			table.Entry("one more", 21, 10, 3),
			table.Entry("limit one", 4, 1, 4),
		)

		It("returns an empty page for a page number whose offset overflows", func() {
			for i := 0; i < 5; i++ {
				insert("login", "u", `{}`, time.Duration(i)*time.Second)
			}
			result, err := reporter.ListEvents(ctx, audit.Filter{}, 1<<62, 4)
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Data).To(BeEmpty())
			Expect(result.Pagination).To(Equal(audit.Pagination{Total: 5, Page: 1 << 62, Limit: 4, TotalPages: 2}))
		})

		It("computes the number of pages for the largest limit", func() {
			insert("login", "u", `{}`, 0)
			result, err := reporter.ListEvents(ctx, audit.Filter{}, math.MaxInt, math.MaxInt)
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Data).To(BeEmpty())
			Expect(result.Pagination.TotalPages).To(Equal(1))
		})

		It("returns an empty data array past the last page", func() {
			insert("login", "u", `{}`, 0)
			result, err := reporter.ListEvents(ctx, audit.Filter{}, 5, 10)
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Data).ToNot(BeNil())
			Expect(result.Data).To(BeEmpty())
			Expect(result.Pagination.Total).To(Equal(1))
		})

		table.DescribeTable("rejects invalid input",
			func(page, limit int, filter audit.Filter) {
				_, err := reporter.ListEvents(ctx, filter, page, limit)
				httpErr, ok := err.(*util.HTTPError)
				Expect(ok).To(BeTrue())
				Expect(httpErr.StatusCode).To(Equal(http.StatusBadRequest))
			},
			table.Entry("page zero", 0, 10, audit.Filter{}),
			table.Entry("negative page", -1, 10, audit.Filter{}),
			table.Entry("limit zero", 1, 0, audit.Filter{}),
			table.Entry("inverted range", 1, 10, audit.Filter{From: timePtr(time.Now()), To: timePtr(time.Now().Add(-time.Hour))}),
		)

		It("surfaces store errors", func() {
			_, err := audit.NewReporter(&failingStore{}, settings).ListEvents(ctx, audit.Filter{}, 1, 10)
			Expect(err).To(MatchError(errStoreDown))
		})
	})

	Describe("ComputeDocumentStats", func() {
		It("aggregates events across batches", func() {
			settings.StatsBatchSize = 2
			insert("View document", "alice", `{"viewDuration":10}`, 0)
			insert("View document", "bob", `{"viewDuration":20}`, time.Second)
			insert("View document", "alice", `{"viewDuration":"n/a"}`, 2*time.Second)
			insert("View document", "", `{}`, 3*time.Second)
			insert("Download document", "bob", `{}`, 4*time.Second)

			stats, err := audit.NewReporter(queryOnly{store}, settings).ComputeDocumentStats(ctx, "")
			Expect(err).ToNot(HaveOccurred())
			Expect(stats).To(HaveLen(2))

			Expect(stats[0].EventType).To(Equal("Download document"))
			Expect(stats[0].Count).To(Equal(1))
			Expect(stats[0].UniqueUsers).To(Equal(1))
			Expect(stats[0].AvgViewDuration).To(BeNil())

			Expect(stats[1].EventType).To(Equal("View document"))
			Expect(stats[1].Count).To(Equal(4))
			Expect(stats[1].UniqueUsers).To(Equal(2))
			Expect(*stats[1].AvgViewDuration).To(BeNumerically("~", 15.0))
		})

		It("counts events only once when inserts shift the batches", func() {
			settings.StatsBatchSize = 2
			for i := 0; i < 4; i++ {
				insert("View document", "alice", `{"viewDuration":10}`, time.Duration(i)*time.Second)
			}
			growing := &growingStore{AuditStore: store}

			stats, err := audit.NewReporter(queryOnly{growing}, settings).ComputeDocumentStats(ctx, "View document")
			Expect(err).ToNot(HaveOccurred())
			Expect(stats).To(HaveLen(1))
			// the four seeded events and the one inserted before the first batch
			Expect(stats[0].Count).To(Equal(5))
			Expect(stats[0].UniqueUsers).To(Equal(2))
			Expect(*stats[0].AvgViewDuration).To(BeNumerically("~", 10.0))
		})

		It("restricts the statistics to one event type", func() {
			insert("View document", "alice", `{"viewDuration":10}`, 0)
			insert("Download document", "bob", `{}`, time.Second)
			stats, err := reporter.ComputeDocumentStats(ctx, "Download document")
			Expect(err).ToNot(HaveOccurred())
			Expect(stats).To(HaveLen(1))
			Expect(stats[0].EventType).To(Equal("Download document"))
		})

		It("returns an empty list without events", func() {
			stats, err := reporter.ComputeDocumentStats(ctx, "")
			Expect(err).ToNot(HaveOccurred())
			Expect(stats).ToNot(BeNil())
			Expect(stats).To(BeEmpty())
		})

		It("uses the statistics of the store when available", func() {
			pushDown := &statsStore{AuditStore: store}
			stats, err := audit.NewReporter(pushDown, settings).ComputeDocumentStats(ctx, "")
			Expect(err).ToNot(HaveOccurred())
			Expect(pushDown.calls).To(Equal(1))
			Expect(stats).ToNot(BeNil())
		})

		It("surfaces store errors", func() {
			_, err := audit.NewReporter(&failingStore{}, settings).ComputeDocumentStats(ctx, "")
			Expect(err).To(MatchError(errStoreDown))
		})
	})
})

func timePtr(t time.Time) *time.Time {
	return &t
}
