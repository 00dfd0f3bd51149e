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

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/bizsuite/backoffice/pkg/audit"
	"github.com/bizsuite/backoffice/pkg/log"
	"github.com/bizsuite/backoffice/pkg/util"
	"github.com/lib/pq"
)

// AuditEventTable is the table holding audit events
const AuditEventTable = "audit_events"

const eventColumns = "id, user_id, event_type, action, resource_type, resource_id, details, timestamp, correlation_id, user_agent, ip_address, device_info"

type auditEventRow struct {
	ID            string      `db:"id"`
	UserID        string      `db:"user_id"`
	EventType     string      `db:"event_type"`
	Action        string      `db:"action"`
	ResourceType  string      `db:"resource_type"`
	ResourceID    string      `db:"resource_id"`
	Details       string      `db:"details"`
	Timestamp     pq.NullTime `db:"timestamp"`
	CorrelationID string      `db:"correlation_id"`
	UserAgent     string      `db:"user_agent"`
	IPAddress     string      `db:"ip_address"`
	DeviceInfo    string      `db:"device_info"`
}

func fromEvent(event *audit.Event) *auditEventRow {
	details := string(event.Details)
	if details == "" {
		details = "{}"
	}
	return &auditEventRow{
		ID:            event.ID,
		UserID:        event.UserID,
		EventType:     event.EventType,
		Action:        event.Action,
		ResourceType:  event.ResourceType,
		ResourceID:    event.ResourceID,
		Details:       details,
		Timestamp:     pq.NullTime{Time: event.Timestamp, Valid: true},
		CorrelationID: event.CorrelationID,
		UserAgent:     event.UserAgent,
		IPAddress:     event.IPAddress,
		DeviceInfo:    event.DeviceInfo,
	}
}

func (r *auditEventRow) toEvent() *audit.Event {
	return &audit.Event{
		ID:            r.ID,
		UserID:        r.UserID,
		EventType:     r.EventType,
		Action:        r.Action,
		ResourceType:  r.ResourceType,
		ResourceID:    r.ResourceID,
		Details:       []byte(r.Details),
		Timestamp:     r.Timestamp.Time.UTC(),
		CorrelationID: r.CorrelationID,
		UserAgent:     r.UserAgent,
		IPAddress:     r.IPAddress,
		DeviceInfo:    r.DeviceInfo,
	}
}

type statsRow struct {
	EventType       string          `db:"event_type"`
	Count           int             `db:"count"`
	UniqueUsers     int             `db:"unique_users"`
	AvgViewDuration sql.NullFloat64 `db:"avg_view_duration"`
}

// Insert stores a new event
func (s *Storage) Insert(ctx context.Context, event *audit.Event) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (:id, :user_id, :event_type, :action, :resource_type, :resource_id, :details, :timestamp, :correlation_id, :user_agent, :ip_address, :device_info)`,
		AuditEventTable, eventColumns)
	log.C(ctx).Debugf("Executing query %s", query)
	_, err := s.checkOpen().NamedExecContext(ctx, query, fromEvent(event))
	return checkUniqueViolation(ctx, err)
}

// Query returns the page of matching events newest first together with the number of all matching events
func (s *Storage) Query(ctx context.Context, filter audit.Filter, page audit.Page) ([]*audit.Event, int, error) {
	if page.Offset < 0 {
		return nil, 0, fmt.Errorf("invalid page offset %d", page.Offset)
	}
	db := s.checkOpen()
	where, args := whereClause(filter)

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", AuditEventTable, where)
	log.C(ctx).Debugf("Executing query %s", countQuery)
	if err := db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}
	if total == 0 || page.Offset >= total {
		return []*audit.Event{}, total, nil
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY timestamp DESC, seq DESC", eventColumns, AuditEventTable, where)
	if page.Limit > 0 {
		args = append(args, page.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if page.Offset > 0 {
		args = append(args, page.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	log.C(ctx).Debugf("Executing query %s", query)
	var rows []auditEventRow
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, err
	}
	events := make([]*audit.Event, 0, len(rows))
	for i := range rows {
		events = append(events, rows[i].toEvent())
	}
	return events, total, nil
}

// Stats computes the statistics in the database
func (s *Storage) Stats(ctx context.Context, eventType string) ([]audit.DocumentStats, error) {
	where, args := whereClause(audit.Filter{EventType: eventType})
	query := fmt.Sprintf(`SELECT event_type,
	COUNT(*) AS count,
	COUNT(DISTINCT NULLIF(user_id, '')) AS unique_users,
	AVG((details->>'%[1]s')::float8) FILTER (WHERE jsonb_typeof(details->'%[1]s') = 'number') AS avg_view_duration
FROM %[2]s%[3]s GROUP BY event_type ORDER BY event_type`, audit.ViewDurationField, AuditEventTable, where)
	log.C(ctx).Debugf("Executing query %s", query)

	var rows []statsRow
	if err := s.checkOpen().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	stats := make([]audit.DocumentStats, 0, len(rows))
	for _, row := range rows {
		st := audit.DocumentStats{
			EventType:   row.EventType,
			Count:       row.Count,
			UniqueUsers: row.UniqueUsers,
		}
		if row.AvgViewDuration.Valid {
			avg := row.AvgViewDuration.Float64
			st.AvgViewDuration = &avg
		}
		stats = append(stats, st)
	}
	return stats, nil
}

func whereClause(filter audit.Filter) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	add := func(condition string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}
	if filter.UserID != "" {
		add("user_id = $%d", filter.UserID)
	}
	if filter.EventType != "" {
		add("event_type = $%d", filter.EventType)
	}
	if filter.From != nil {
		add("timestamp >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("timestamp <= $%d", *filter.To)
	}
	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func checkUniqueViolation(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var sqlErr *pq.Error
	if errors.As(err, &sqlErr) && sqlErr.Code.Name() == "unique_violation" {
		log.C(ctx).Debug(sqlErr)
		return util.ErrAlreadyExistsInStorage
	}
	return err
}
