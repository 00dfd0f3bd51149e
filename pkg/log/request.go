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

package log

import (
	"context"
	"net/http"

	"github.com/gofrs/uuid"
)

type correlationIDKey struct{}

// CorrelationIDHeaders are the headers whose values will be taken as a correlation id for incoming requests
var CorrelationIDHeaders = []string{"X-Correlation-ID", "X-CorrelationID", "X-ForRequest-ID", "X-Request-ID"}

// CorrelationIDForRequest returns the first correlation id found in the request headers.
// If none exists a new one is generated and set on the request under the first supported header.
func CorrelationIDForRequest(request *http.Request) string {
	for _, header := range CorrelationIDHeaders {
		if value := request.Header.Get(header); value != "" {
			return value
		}
	}
	id := NewCorrelationID()
	if id != "" {
		request.Header.Set(CorrelationIDHeaders[0], id)
	}
	return id
}

// NewCorrelationID generates a new random correlation id. An empty string is returned if no randomness is available.
func NewCorrelationID() string {
	id, err := uuid.NewV4()
	if err != nil {
		return ""
	}
	return id.String()
}

// ContextWithCorrelationID stores the correlation id in the context
func ContextWithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, correlationID)
}

// CorrelationIDFromContext returns the correlation id stored in the context, if any
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}
