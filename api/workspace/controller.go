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

package workspace

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bizsuite/backoffice/pkg/audit"
	"github.com/bizsuite/backoffice/pkg/log"
	"github.com/bizsuite/backoffice/pkg/util"
	"github.com/bizsuite/backoffice/pkg/web"
	"github.com/tidwall/gjson"
)

// Workspace event types
const (
	CreateWorkspaceEvent = "Create workspace"
	UpdateWorkspaceEvent = "Update workspace"
	DeleteWorkspaceEvent = "Delete workspace"
	AddMemberEvent       = "Add workspace member"
)

const entityName = "workspace"

type createRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

type updateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

func (u *updateRequest) Validate() error {
	if u.Name == nil && u.Description == nil {
		return fmt.Errorf("at least one of name and description must be provided")
	}
	return nil
}

type memberRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
	Role   string `json:"role" validate:"required,oneof=admin member"`
}

// Controller serves the workspace endpoints
type Controller struct {
	repository *Repository
}

// NewController creates a workspace controller over the repository
func NewController(repository *Repository) *Controller {
	return &Controller{repository: repository}
}

// Routes returns the workspace routes
func (c *Controller) Routes() []web.Route {
	byID := fmt.Sprintf("%s/{%s}", web.WorkspacesURL, web.PathParamID)
	return []web.Route{
		{Endpoint: web.Endpoint{Method: http.MethodPost, Path: web.WorkspacesURL}, Handler: c.create},
		{Endpoint: web.Endpoint{Method: http.MethodGet, Path: web.WorkspacesURL}, Handler: c.list},
		{Endpoint: web.Endpoint{Method: http.MethodGet, Path: byID}, Handler: c.get},
		{Endpoint: web.Endpoint{Method: http.MethodPatch, Path: byID}, Handler: c.patch},
		{Endpoint: web.Endpoint{Method: http.MethodDelete, Path: byID}, Handler: c.delete},
		{Endpoint: web.Endpoint{Method: http.MethodPost, Path: byID + "/members"}, Handler: c.addMember},
	}
}

// AuditRules returns the audit rules of the workspace endpoints
func (c *Controller) AuditRules() []*audit.Rule {
	return []*audit.Rule{
		{
			PathMatcher:  "^/workspaces$",
			Methods:      []string{http.MethodPost},
			EventType:    CreateWorkspaceEvent,
			ResourceType: entityName,
			DetailExtractor: audit.WithPrincipal(func(response gjson.Result, _ *audit.RequestContext) (audit.Details, error) {
				id := response.Get("id")
				if !id.Exists() {
					return nil, fmt.Errorf("created workspace has no id")
				}
				return audit.Details{
					"resourceId": id.String(),
					"name":       response.Get("name").String(),
				}, nil
			}),
		},
		{
			PathMatcher:  "^/workspaces/[^/]+$",
			Methods:      []string{http.MethodPatch},
			EventType:    UpdateWorkspaceEvent,
			ResourceType: entityName,
			DetailExtractor: audit.WithPrincipal(func(_ gjson.Result, req *audit.RequestContext) (audit.Details, error) {
				return audit.Details{"updatedFields": audit.BodyFields(req.Body)}, nil
			}),
		},
		{
			PathMatcher:     "^/workspaces/[^/]+$",
			Methods:         []string{http.MethodDelete},
			EventType:       DeleteWorkspaceEvent,
			ResourceType:    entityName,
			DetailExtractor: audit.WithPrincipal(nil),
		},
		{
			PathMatcher:  "^/workspaces/[^/]+/members$",
			Methods:      []string{http.MethodPost},
			EventType:    AddMemberEvent,
			ResourceType: entityName,
			DetailExtractor: audit.WithPrincipal(func(_ gjson.Result, req *audit.RequestContext) (audit.Details, error) {
				return audit.Details{
					"memberId": req.Body.Get("userId").String(),
					"role":     req.Body.Get("role").String(),
				}, nil
			}),
		},
	}
}

func (c *Controller) create(req *web.Request) (*web.Response, error) {
	user, err := currentUser(req)
	if err != nil {
		return nil, err
	}
	body := &createRequest{}
	if err := util.BytesToObject(req.Body, body); err != nil {
		return nil, err
	}
	w, err := c.repository.Create(req.Context(), user.ID, body.Name, body.Description)
	if err != nil {
		return nil, util.HandleStorageError(err, entityName)
	}
	log.C(req.Context()).Infof("Created workspace %s owned by %s", w.ID, user.ID)
	return util.NewJSONResponse(http.StatusCreated, w)
}

func (c *Controller) list(req *web.Request) (*web.Response, error) {
	user, err := currentUser(req)
	if err != nil {
		return nil, err
	}
	return util.NewJSONResponse(http.StatusOK, c.repository.ListForMember(req.Context(), user.ID))
}

func (c *Controller) get(req *web.Request) (*web.Response, error) {
	user, err := currentUser(req)
	if err != nil {
		return nil, err
	}
	w, err := c.repository.Get(req.Context(), req.PathParams[web.PathParamID])
	if err != nil {
		return nil, util.HandleStorageError(err, entityName)
	}
	if !w.HasMember(user.ID) {
		return nil, util.HandleStorageError(util.ErrNotFoundInStorage, entityName)
	}
	return util.NewJSONResponse(http.StatusOK, w)
}

func (c *Controller) patch(req *web.Request) (*web.Response, error) {
	user, err := currentUser(req)
	if err != nil {
		return nil, err
	}
	body := &updateRequest{}
	if err := util.BytesToObject(req.Body, body); err != nil {
		return nil, err
	}
	w, err := c.repository.Update(req.Context(), req.PathParams[web.PathParamID], func(w *Workspace) error {
		if err := authorize(w, user.ID, RoleOwner, RoleAdmin); err != nil {
			return err
		}
		if body.Name != nil {
			w.Name = *body.Name
		}
		if body.Description != nil {
			w.Description = *body.Description
		}
		return nil
	})
	if err != nil {
		return nil, util.HandleStorageError(err, entityName)
	}
	return util.NewJSONResponse(http.StatusOK, w)
}

func (c *Controller) delete(req *web.Request) (*web.Response, error) {
	user, err := currentUser(req)
	if err != nil {
		return nil, err
	}
	ctx := req.Context()
	id := req.PathParams[web.PathParamID]
	w, err := c.repository.Get(ctx, id)
	if err != nil {
		return nil, util.HandleStorageError(err, entityName)
	}
	if err := authorize(w, user.ID, RoleOwner); err != nil {
		return nil, err
	}
	if err := c.repository.Delete(ctx, id); err != nil {
		return nil, util.HandleStorageError(err, entityName)
	}
	log.C(ctx).Infof("Deleted workspace %s", id)
	return util.NewJSONResponse(http.StatusOK, util.EmptyResponseBody{})
}

func (c *Controller) addMember(req *web.Request) (*web.Response, error) {
	user, err := currentUser(req)
	if err != nil {
		return nil, err
	}
	body := &memberRequest{}
	if err := util.BytesToObject(req.Body, body); err != nil {
		return nil, err
	}
	w, err := c.repository.Update(req.Context(), req.PathParams[web.PathParamID], func(w *Workspace) error {
		if err := authorize(w, user.ID, RoleOwner, RoleAdmin); err != nil {
			return err
		}
		if w.HasMember(body.UserID) {
			return util.ErrAlreadyExistsInStorage
		}
		w.Members = append(w.Members, Member{UserID: body.UserID, Role: body.Role, AddedAt: time.Now().UTC()})
		return nil
	})
	if err != nil {
		return nil, util.HandleStorageError(err, "workspace member")
	}
	return util.NewJSONResponse(http.StatusCreated, w)
}

func authorize(w *Workspace, userID string, roles ...string) error {
	for _, m := range w.Members {
		if m.UserID != userID {
			continue
		}
		for _, role := range roles {
			if m.Role == role {
				return nil
			}
		}
		return &util.HTTPError{
			ErrorType:   "Forbidden",
			Description: fmt.Sprintf("user is not allowed to modify workspace %s", w.ID),
			StatusCode:  http.StatusForbidden,
		}
	}
	return util.ErrNotFoundInStorage
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
