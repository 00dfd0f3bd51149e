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

package audit

import (
	"sort"

	"github.com/tidwall/gjson"
)

// ViewDurationField is the details field averaged by the statistics
const ViewDurationField = "viewDuration"

type typeStats struct {
	count         int
	users         map[string]struct{}
	durationSum   float64
	durationCount int
}

// StatsAccumulator aggregates events into DocumentStats
type StatsAccumulator struct {
	byType map[string]*typeStats
}

// NewStatsAccumulator returns an empty accumulator
func NewStatsAccumulator() *StatsAccumulator {
	return &StatsAccumulator{byType: make(map[string]*typeStats)}
}

// Add accounts for one event
func (a *StatsAccumulator) Add(event *Event) {
	stats, ok := a.byType[event.EventType]
	if !ok {
		stats = &typeStats{users: make(map[string]struct{})}
		a.byType[event.EventType] = stats
	}
	stats.count++
	if event.UserID != "" {
		stats.users[event.UserID] = struct{}{}
	}
	if duration := gjson.GetBytes(event.Details, ViewDurationField); duration.Type == gjson.Number {
		stats.durationSum += duration.Num
		stats.durationCount++
	}
}

// Result returns the statistics of every seen event type ordered by event type
func (a *StatsAccumulator) Result() []DocumentStats {
	result := make([]DocumentStats, 0, len(a.byType))
	for eventType, stats := range a.byType {
		s := DocumentStats{
			EventType:   eventType,
			Count:       stats.count,
			UniqueUsers: len(stats.users),
		}
		if stats.durationCount > 0 {
			avg := stats.durationSum / float64(stats.durationCount)
			s.AvgViewDuration = &avg
		}
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].EventType < result[j].EventType
	})
	return result
}
