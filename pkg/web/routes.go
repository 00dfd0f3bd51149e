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

package web

const (
	// PathParamID is the value used to denote the id of the requested entity
	PathParamID = "id"

	// ProfileURL is the URL path of the authenticated user's profile
	ProfileURL = "/profile/me"

	// WorkspacesURL is the URL path to manage workspaces
	WorkspacesURL = "/workspaces"

	// DocumentsURL is the URL path to track document views and downloads
	DocumentsURL = "/documents"

	// AuditURL is the base URL path of the audit reporting API
	AuditURL = "/audit"

	// AuditEventsURL is the URL path to list recorded audit events
	AuditEventsURL = AuditURL + "/events"

	// AuditStatsURL is the URL path of the aggregated audit statistics
	AuditStatsURL = AuditURL + "/stats"

	// MonitorHealthURL is the path of the healthcheck endpoint
	MonitorHealthURL = "/monitor/health"

	// MetricsURL is the path of the prometheus scrape endpoint
	MetricsURL = "/metrics"
)
