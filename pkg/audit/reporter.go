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
	"context"
	"fmt"
	"math"

	"github.com/bizsuite/backoffice/pkg/util"
)

// Reporter serves paginated and aggregated views over the recorded events
type Reporter struct {
	store    Store
	settings *Settings
}

// NewReporter creates a reporter reading from the store
func NewReporter(store Store, settings *Settings) *Reporter {
	return &Reporter{
		store:    store,
		settings: settings,
	}
}

// ListEvents returns the given 1-indexed page of events matching the filter, newest first
func (r *Reporter) ListEvents(ctx context.Context, filter Filter, page, limit int) (*PaginatedResult, error) {
	if page < 1 {
		return nil, util.NewBadRequestError("page must be a positive integer, got %d", page)
	}
	if limit < 1 {
		return nil, util.NewBadRequestError("limit must be a positive integer, got %d", limit)
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, util.NewBadRequestError("from must not be after to")
	}

	events, total, err := r.store.Query(ctx, filter, Page{Offset: pageOffset(page, limit), Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("could not query audit events: %w", err)
	}
	if events == nil {
		events = []*Event{}
	}
	return &PaginatedResult{
		Data: events,
		Pagination: Pagination{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages(total, limit),
		},
	}, nil
}

// pageOffset returns the offset of the 1-indexed page. Offsets that do not fit an int are clamped
// to math.MaxInt, which lies past the end of every result.
func pageOffset(page, limit int) int {
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

func totalPages(total, limit int) int {
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return pages
}

// ComputeDocumentStats aggregates the events of the given type, or of every type when eventType is empty
func (r *Reporter) ComputeDocumentStats(ctx context.Context, eventType string) ([]DocumentStats, error) {
	if statsStore, ok := r.store.(StatsStore); ok {
		stats, err := statsStore.Stats(ctx, eventType)
		if err != nil {
			return nil, fmt.Errorf("could not compute audit statistics: %w", err)
		}
		if stats == nil {
			stats = []DocumentStats{}
		}
		return stats, nil
	}

	// events inserted while paging shift older events into the next batch
	seen := make(map[string]struct{})
	accumulator := NewStatsAccumulator()
	filter := Filter{EventType: eventType}
	batch := r.settings.StatsBatchSize
	for offset := 0; ; offset += batch {
		events, total, err := r.store.Query(ctx, filter, Page{Offset: offset, Limit: batch})
		if err != nil {
			return nil, fmt.Errorf("could not query audit events for statistics: %w", err)
		}
		for _, event := range events {
			if _, counted := seen[event.ID]; counted {
				continue
			}
			seen[event.ID] = struct{}{}
			accumulator.Add(event)
		}
		if len(events) == 0 || offset+len(events) >= total {
			break
		}
	}
	return accumulator.Result(), nil
}
