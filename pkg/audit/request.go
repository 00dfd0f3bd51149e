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
	"net"
	"strings"

	"github.com/bizsuite/backoffice/pkg/log"
	"github.com/bizsuite/backoffice/pkg/web"
	"github.com/tidwall/gjson"
)

// DeviceInfoHeaders are checked in order for a client supplied device description
var DeviceInfoHeaders = []string{"X-Device-Info", "X-Device-ID"}

// NewRequestContext takes a snapshot of the request for the audit pipeline
func NewRequestContext(req *web.Request) *RequestContext {
	rc := &RequestContext{
		Method:     strings.ToUpper(req.Method),
		Path:       req.URL.Path,
		Params:     make(map[string]string, len(req.PathParams)),
		Query:      req.URL.Query(),
		UserAgent:  req.UserAgent(),
		IPAddress:  SourceIP(req),
		DeviceInfo: deviceInfo(req),
	}
	for k, v := range req.PathParams {
		rc.Params[k] = v
	}
	if len(req.Body) > 0 && gjson.ValidBytes(req.Body) {
		rc.Body = gjson.ParseBytes(req.Body)
	}

	rc.CorrelationID = log.CorrelationIDFromContext(req.Context())
	if rc.CorrelationID == "" {
		for _, header := range log.CorrelationIDHeaders {
			if value := req.Header.Get(header); value != "" {
				rc.CorrelationID = value
				break
			}
		}
	}

	if user, ok := web.UserFromContext(req.Context()); ok {
		rc.Principal = &Principal{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
		}
	}
	return rc
}

// SourceIP returns the first valid address of the X-Forwarded-For header or the remote address of the connection
func SourceIP(req *web.Request) string {
	if forwarded := req.Header.Get("X-Forwarded-For"); forwarded != "" {
		for _, candidate := range strings.Split(forwarded, ",") {
			if ip := net.ParseIP(strings.TrimSpace(candidate)); ip != nil {
				return ip.String()
			}
		}
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}

func deviceInfo(req *web.Request) string {
	for _, header := range DeviceInfoHeaders {
		if value := req.Header.Get(header); value != "" {
			return value
		}
	}
	return ""
}
