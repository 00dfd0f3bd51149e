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

// Package profile contains the profile of the authenticated user
package profile

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/bizsuite/backoffice/pkg/audit"
	"github.com/bizsuite/backoffice/pkg/log"
	"github.com/bizsuite/backoffice/pkg/util"
	"github.com/bizsuite/backoffice/pkg/web"
	"github.com/tidwall/gjson"
)

// UpdateProfileEvent is the event type recorded when a user updates their profile
const UpdateProfileEvent = "Update my profile"

// Profile is the profile of a user
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Locale    string    `json:"locale,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type profileUpdate struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=200"`
	Phone  *string `json:"phone" validate:"omitempty,e164"`
	Locale *string `json:"locale" validate:"omitempty,min=2,max=35"`
}

func (u *profileUpdate) Validate() error {
	if u.Name == nil && u.Phone == nil && u.Locale == nil {
		return errors.New("at least one of name, phone and locale must be provided")
	}
	return nil
}

func (u *profileUpdate) apply(p *Profile) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Phone != nil {
		p.Phone = *u.Phone
	}
	if u.Locale != nil {
		p.Locale = *u.Locale
	}
}

// Repository keeps the profiles in memory
type Repository struct {
	mutex    sync.RWMutex
	profiles map[string]Profile
}

// NewRepository creates an empty profile repository
func NewRepository() *Repository {
	return &Repository{profiles: make(map[string]Profile)}
}

// Get returns the profile of the user, creating it from the user's claims on first access
func (r *Repository) Get(_ context.Context, user *web.UserContext) Profile {
	r.mutex.RLock()
	p, found := r.profiles[user.ID]
	r.mutex.RUnlock()
	if found {
		return p
	}
	return Profile{ID: user.ID, Email: user.Email, Name: user.Name}
}

// Update applies the changes to the profile of the user
func (r *Repository) Update(ctx context.Context, user *web.UserContext, change func(*Profile)) Profile {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	p, found := r.profiles[user.ID]
	if !found {
		p = Profile{ID: user.ID, Email: user.Email, Name: user.Name}
	}
	change(&p)
	p.UpdatedAt = time.Now().UTC()
	r.profiles[user.ID] = p
	log.C(ctx).Debugf("Updated profile of user %s", user.ID)
	return p
}

// Controller serves the profile of the authenticated user
type Controller struct {
	repository *Repository
}

// NewController creates a profile controller over the repository
func NewController(repository *Repository) *Controller {
	return &Controller{repository: repository}
}

// Routes returns the profile routes
func (c *Controller) Routes() []web.Route {
	return []web.Route{
		{
			Endpoint: web.Endpoint{
				Method: http.MethodGet,
				Path:   web.ProfileURL,
			},
			Handler: c.get,
		},
		{
			Endpoint: web.Endpoint{
				Method: http.MethodPatch,
				Path:   web.ProfileURL,
			},
			Handler: c.patch,
		},
	}
}

// AuditRules returns the audit rules of the profile endpoints
func (c *Controller) AuditRules() []*audit.Rule {
	return []*audit.Rule{
		{
			PathMatcher:  "^/profile/me$",
			Methods:      []string{http.MethodPatch},
			EventType:    UpdateProfileEvent,
			ResourceType: "profile",
			DetailExtractor: audit.WithPrincipal(func(_ gjson.Result, req *audit.RequestContext) (audit.Details, error) {
				return audit.Details{
					"resourceId":    req.Principal.ID,
					"updatedFields": audit.BodyFields(req.Body),
				}, nil
			}),
		},
	}
}

func (c *Controller) get(req *web.Request) (*web.Response, error) {
	user, err := currentUser(req)
	if err != nil {
		return nil, err
	}
	return util.NewJSONResponse(http.StatusOK, c.repository.Get(req.Context(), user))
}

func (c *Controller) patch(req *web.Request) (*web.Response, error) {
	user, err := currentUser(req)
	if err != nil {
		return nil, err
	}
	update := &profileUpdate{}
	if err := util.BytesToObject(req.Body, update); err != nil {
		return nil, err
	}
	profile := c.repository.Update(req.Context(), user, update.apply)
	return util.NewJSONResponse(http.StatusOK, profile)
}

func currentUser(req *web.Request) (*web.UserContext, error) {
	user, ok := web.UserFromContext(req.Context())
	if !ok {
		return nil, &util.HTTPError{
			ErrorType:   "Unauthorized",
			Description: "authentication required",
			StatusCode:  http.StatusUnauthorized,
		}
	}
	return user, nil
}
