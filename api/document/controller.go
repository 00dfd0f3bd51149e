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

// Package document tracks how users view and download documents
package document

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/bizsuite/backoffice/pkg/audit"
	"github.com/bizsuite/backoffice/pkg/util"
	"github.com/bizsuite/backoffice/pkg/web"
	"github.com/tidwall/gjson"
)

// Document event types
const (
	ViewDocumentEvent     = "View document"
	DownloadDocumentEvent = "Download document"
)

// Activity counts the views and downloads of a document
type Activity struct {
	DocumentID string `json:"documentId"`
	Views      int    `json:"views"`
	Downloads  int    `json:"downloads"`
}

type viewRequest struct {
	ViewDuration *float64 `json:"viewDuration" validate:"required,gte=0"`
}

type downloadRequest struct {
	Format string `json:"format" validate:"omitempty,oneof=pdf docx xlsx csv"`
}

// Tracker keeps document activity in memory
type Tracker struct {
	mutex      sync.Mutex
	activities map[string]*Activity
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{activities: make(map[string]*Activity)}
}

func (t *Tracker) track(documentID string, change func(*Activity)) Activity {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	a, found := t.activities[documentID]
	if !found {
		a = &Activity{DocumentID: documentID}
		t.activities[documentID] = a
	}
	change(a)
	return *a
}

// Controller serves the document tracking endpoints
type Controller struct {
	tracker *Tracker
}

// NewController creates a document controller over the tracker
func NewController(tracker *Tracker) *Controller {
	return &Controller{tracker: tracker}
}

// Routes returns the document routes
func (c *Controller) Routes() []web.Route {
	byID := fmt.Sprintf("%s/{%s}", web.DocumentsURL, web.PathParamID)
	return []web.Route{
		{Endpoint: web.Endpoint{Method: http.MethodPost, Path: byID + "/views"}, Handler: c.view},
		{Endpoint: web.Endpoint{Method: http.MethodPost, Path: byID + "/downloads"}, Handler: c.download},
	}
}

// AuditRules returns the audit rules of the document endpoints
func (c *Controller) AuditRules() []*audit.Rule {
	return []*audit.Rule{
		{
			PathMatcher:  "^/documents/[^/]+/views$",
			Methods:      []string{http.MethodPost},
			EventType:    ViewDocumentEvent,
			Action:       audit.ActionRead,
			ResourceType: "document",
			DetailExtractor: audit.WithPrincipal(func(_ gjson.Result, req *audit.RequestContext) (audit.Details, error) {
				duration := req.Body.Get(audit.ViewDurationField)
				if duration.Type != gjson.Number {
					return audit.Details{}, nil
				}
				return audit.Details{audit.ViewDurationField: duration.Float()}, nil
			}),
		},
		{
			PathMatcher:  "^/documents/[^/]+/downloads$",
			Methods:      []string{http.MethodPost},
			EventType:    DownloadDocumentEvent,
			Action:       audit.ActionRead,
			ResourceType: "document",
			DetailExtractor: audit.WithPrincipal(func(_ gjson.Result, req *audit.RequestContext) (audit.Details, error) {
				details := audit.Details{}
				if format := req.Body.Get("format").String(); format != "" {
					details["format"] = format
				}
				return details, nil
			}),
		},
	}
}

func (c *Controller) view(req *web.Request) (*web.Response, error) {
	body := &viewRequest{}
	if err := util.BytesToObject(req.Body, body); err != nil {
		return nil, err
	}
	activity := c.tracker.track(req.PathParams[web.PathParamID], func(a *Activity) {
		a.Views++
	})
	return util.NewJSONResponse(http.StatusOK, activity)
}

func (c *Controller) download(req *web.Request) (*web.Response, error) {
	body := &downloadRequest{}
	if len(req.Body) > 0 {
		if err := util.BytesToObject(req.Body, body); err != nil {
			return nil, err
		}
	}
	activity := c.tracker.track(req.PathParams[web.PathParamID], func(a *Activity) {
		a.Downloads++
	})
	return util.NewJSONResponse(http.StatusOK, activity)
}
