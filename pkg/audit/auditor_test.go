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
	"encoding/json"
	"errors"
	"time"

	"github.com/bizsuite/backoffice/pkg/audit"
	"github.com/bizsuite/backoffice/storage/memory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Auditor", func() {
	var (
		registry *audit.Registry
		store    *memory.AuditStore
		settings *audit.Settings
		metrics  *audit.Metrics
		auditor  *audit.Auditor
	)

	updateProfile := audit.WithPrincipal(func(_ gjson.Result, req *audit.RequestContext) (audit.Details, error) {
		return audit.Details{"updatedFields": audit.BodyFields(req.Body)}, nil
	})

	storedEvents := func() []*audit.Event {
		events, _, err := store.Query(context.Background(), audit.Filter{}, audit.Page{Limit: 100})
		Expect(err).ToNot(HaveOccurred())
		return events
	}

	newAuditor := func(s audit.Store) *audit.Auditor {
		return audit.NewAuditor(registry, audit.NewRecorder(s, settings, metrics), settings)
	}

	BeforeEach(func() {
		registry = audit.NewRegistry()
		store = memory.NewAuditStore()
		settings = audit.DefaultSettings()
		var err error
		metrics, err = audit.NewMetrics(prometheus.NewRegistry())
		Expect(err).ToNot(HaveOccurred())
		Expect(registry.AddEndpointToAudit("^/profile/me$", []string{"PATCH"}, "Update my profile", updateProfile)).To(Succeed())
		auditor = newAuditor(store)
	})

	It("records one event for a profile update with a valid principal", func() {
		req := principalRequest("PATCH", "/profile/me?x=1")
		req.Body = gjson.Parse(`{"name":"A"}`)

		Expect(auditor.Observe(context.Background(), req, []byte(`{"name":"A"}`))).To(Equal(1))
		auditor.Wait()

		events := storedEvents()
		Expect(events).To(HaveLen(1))
		var details struct {
			UserID        string   `json:"userId"`
			UpdatedFields []string `json:"updatedFields"`
		}
		Expect(json.Unmarshal(events[0].Details, &details)).To(Succeed())
		Expect(details.UpdatedFields).To(Equal([]string{"name"}))
		Expect(details.UserID).To(Equal(validUserID))
		Expect(events[0].EventType).To(Equal("Update my profile"))
	})

	It("records nothing without a valid principal", func() {
		req := principalRequest("PATCH", "/profile/me")
		req.Principal.ID = "not-an-id"
		req.Body = gjson.Parse(`{"name":"A"}`)

		Expect(auditor.Observe(context.Background(), req, nil)).To(Equal(1))
		auditor.Wait()
		Expect(storedEvents()).To(BeEmpty())
		Expect(testutil.ToFloat64(audit.EventsCounter(metrics, audit.OutcomeSuppressed))).To(Equal(1.0))

		req.Principal = nil
		auditor.Observe(context.Background(), req, nil)
		auditor.Wait()
		Expect(storedEvents()).To(BeEmpty())
	})

	It("records nothing for requests without matching rules", func() {
		Expect(auditor.Observe(context.Background(), principalRequest("GET", "/profile/me"), nil)).To(BeZero())
		auditor.Wait()
		Expect(storedEvents()).To(BeEmpty())
	})

	It("fires every matching rule", func() {
		registry.MustRegister(&audit.Rule{
			PathMatcher:     "^/profile/",
			Methods:         []string{"PATCH"},
			EventType:       "Profile activity",
			DetailExtractor: staticDetails(audit.Details{"seen": true}),
		})
		Expect(auditor.Observe(context.Background(), principalRequest("PATCH", "/profile/me"), nil)).To(Equal(2))
		auditor.Wait()

		events := storedEvents()
		Expect(events).To(HaveLen(2))
		Expect(events[0].CorrelationID).To(Equal(events[1].CorrelationID))
	})

	It("isolates failing extractors from the other rules", func() {
		logCtx, hook := loggingContext()
		registry.MustRegister(&audit.Rule{
			PathMatcher: "^/profile/me$",
			Methods:     []string{"PATCH"},
			EventType:   "Broken",
			DetailExtractor: func(gjson.Result, *audit.RequestContext) (audit.Details, error) {
				return nil, errors.New("boom")
			},
		})
		req := principalRequest("PATCH", "/profile/me")
		req.Body = gjson.Parse(`{"name":"A"}`)
		auditor.Observe(logCtx, req, nil)
		auditor.Wait()

		Expect(storedEvents()).To(HaveLen(1))
		Expect(entriesAt(hook, logrus.WarnLevel)).To(HaveLen(1))
		Expect(testutil.ToFloat64(audit.EventsCounter(metrics, audit.OutcomeExtractionFailed))).To(Equal(1.0))
	})

	It("keeps recording after the request context is cancelled", func() {
		blocking := make(chan struct{})
		registry.MustRegister(&audit.Rule{
			PathMatcher: "^/slow$",
			Methods:     []string{"POST"},
			EventType:   "Slow",
			DetailExtractor: func(gjson.Result, *audit.RequestContext) (audit.Details, error) {
				<-blocking
				return audit.Details{"done": true}, nil
			},
		})
		ctx, cancel := context.WithCancel(context.Background())
		auditor.Observe(ctx, principalRequest("POST", "/slow"), nil)
		cancel()
		close(blocking)
		auditor.Wait()
		Expect(storedEvents()).To(HaveLen(1))
	})

	It("does not fail when the store fails", func() {
		failing := &failingStore{}
		failingAuditor := newAuditor(failing)
		req := principalRequest("PATCH", "/profile/me")
		req.Body = gjson.Parse(`{"name":"A"}`)

		Expect(func() {
			failingAuditor.Observe(context.Background(), req, nil)
			failingAuditor.Wait()
		}).ToNot(Panic())
		Expect(failing.inserts).To(Equal(1))
	})

	It("does nothing when disabled", func() {
		settings.Enabled = false
		Expect(auditor.Observe(context.Background(), principalRequest("PATCH", "/profile/me"), nil)).To(BeZero())
	})

	It("reports whether in-flight events finished on shutdown", func() {
		blocking := make(chan struct{})
		registry.MustRegister(&audit.Rule{
			PathMatcher: "^/slow$",
			Methods:     []string{"POST"},
			EventType:   "Slow",
			DetailExtractor: func(gjson.Result, *audit.RequestContext) (audit.Details, error) {
				<-blocking
				return nil, nil
			},
		})
		settings.ShutdownTimeout = 10 * time.Millisecond
		auditor.Observe(context.Background(), principalRequest("POST", "/slow"), nil)
		Expect(auditor.Shutdown(context.Background())).To(BeFalse())
		close(blocking)
		settings.ShutdownTimeout = 0
		Expect(auditor.Shutdown(context.Background())).To(BeTrue())
	})
})
