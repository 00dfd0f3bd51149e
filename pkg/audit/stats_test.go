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
	"github.com/bizsuite/backoffice/pkg/audit"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("StatsAccumulator", func() {
	It("averages only numeric durations", func() {
		accumulator := audit.NewStatsAccumulator()
		accumulator.Add(&audit.Event{EventType: "View document", UserID: "a", Details: []byte(`{"viewDuration":3}`)})
		accumulator.Add(&audit.Event{EventType: "View document", UserID: "a", Details: []byte(`{"viewDuration":4.5}`)})
		accumulator.Add(&audit.Event{EventType: "View document", UserID: "b", Details: []byte(`{"viewDuration":null}`)})
		accumulator.Add(&audit.Event{EventType: "View document", UserID: "c", Details: []byte(`{"viewDuration":"7"}`)})

		stats := accumulator.Result()
		Expect(stats).To(HaveLen(1))
		Expect(stats[0].Count).To(Equal(4))
		Expect(stats[0].UniqueUsers).To(Equal(3))
		Expect(*stats[0].AvgViewDuration).To(BeNumerically("~", 3.75))
	})

	It("omits the average when no event has a duration", func() {
		accumulator := audit.NewStatsAccumulator()
		accumulator.Add(&audit.Event{EventType: "Download document", UserID: "a", Details: []byte(`{}`)})
		stats := accumulator.Result()
		Expect(stats[0].AvgViewDuration).To(BeNil())
	})

	It("orders the result by event type", func() {
		accumulator := audit.NewStatsAccumulator()
		for _, eventType := range []string{"c", "a", "b", "a"} {
			accumulator.Add(&audit.Event{EventType: eventType})
		}
		var types []string
		for _, s := range accumulator.Result() {
			types = append(types, s.EventType)
		}
		Expect(types).To(Equal([]string{"a", "b", "c"}))
	})
})
