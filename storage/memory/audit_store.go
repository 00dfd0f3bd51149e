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

// Package memory contains an append-only in-memory audit store
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bizsuite/backoffice/pkg/audit"
	"github.com/bizsuite/backoffice/pkg/util"
)

// AuditStore keeps audit events in memory. It is meant for development and tests.
type AuditStore struct {
	mutex  sync.RWMutex
	events []*audit.Event
	ids    map[string]struct{}
}

// NewAuditStore returns an empty store
func NewAuditStore() *AuditStore {
	return &AuditStore{
		ids: make(map[string]struct{}),
	}
}

// Insert stores a copy of the event
func (s *AuditStore) Insert(ctx context.Context, event *audit.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, exists := s.ids[event.ID]; exists {
		return util.ErrAlreadyExistsInStorage
	}
	s.ids[event.ID] = struct{}{}
	s.events = append(s.events, copyEvent(event))
	return nil
}

// Query returns the matching events newest first. Events with equal timestamps keep reverse insertion order.
func (s *AuditStore) Query(ctx context.Context, filter audit.Filter, page audit.Page) ([]*audit.Event, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if page.Offset < 0 {
		return nil, 0, fmt.Errorf("invalid page offset %d", page.Offset)
	}
	s.mutex.RLock()
	matching := make([]*audit.Event, 0)
	for i := len(s.events) - 1; i >= 0; i-- {
		if filter.Matches(s.events[i]) {
			matching = append(matching, s.events[i])
		}
	}
	s.mutex.RUnlock()

	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].Timestamp.After(matching[j].Timestamp)
	})

	total := len(matching)
	if page.Offset >= total {
		return []*audit.Event{}, total, nil
	}
	end := total
	if page.Limit > 0 && page.Limit < total-page.Offset {
		end = page.Offset + page.Limit
	}
	result := make([]*audit.Event, 0, end-page.Offset)
	for _, event := range matching[page.Offset:end] {
		result = append(result, copyEvent(event))
	}
	return result, total, nil
}

// Stats computes the statistics over a consistent snapshot of the stored events
func (s *AuditStore) Stats(ctx context.Context, eventType string) ([]audit.DocumentStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	accumulator := audit.NewStatsAccumulator()
	filter := audit.Filter{EventType: eventType}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	for _, event := range s.events {
		if filter.Matches(event) {
			accumulator.Add(event)
		}
	}
	return accumulator.Result(), nil
}

// Len returns the number of stored events
func (s *AuditStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.events)
}

func copyEvent(event *audit.Event) *audit.Event {
	c := *event
	c.Details = append([]byte(nil), event.Details...)
	return &c
}
