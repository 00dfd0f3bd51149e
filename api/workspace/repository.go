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

// Package workspace contains the tenant workspaces and their members
package workspace

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bizsuite/backoffice/pkg/util"
	"github.com/gofrs/uuid"
)

// Member roles
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Member is a user participating in a workspace
type Member struct {
	UserID  string    `json:"userId"`
	Role    string    `json:"role"`
	AddedAt time.Time `json:"addedAt"`
}

// Workspace is a tenant of the backoffice
type Workspace struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"ownerId"`
	Members     []Member  `json:"members"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// HasMember reports whether the user is a member of the workspace
func (w *Workspace) HasMember(userID string) bool {
	for _, m := range w.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

func (w *Workspace) copy() *Workspace {
	c := *w
	c.Members = append([]Member(nil), w.Members...)
	return &c
}

// Repository keeps the workspaces in memory
type Repository struct {
	mutex      sync.RWMutex
	workspaces map[string]*Workspace
	now        func() time.Time
}

// NewRepository creates an empty workspace repository
func NewRepository() *Repository {
	return &Repository{
		workspaces: make(map[string]*Workspace),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new workspace owned by ownerID
func (r *Repository) Create(ctx context.Context, ownerID, name, description string) (*Workspace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("could not generate workspace id: %w", err)
	}
	now := r.now()
	w := &Workspace{
		ID:          id.String(),
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
		Members:     []Member{{UserID: ownerID, Role: RoleOwner, AddedAt: now}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.workspaces[w.ID] = w
	return w.copy(), nil
}

// Get returns the workspace with the id
func (r *Repository) Get(_ context.Context, id string) (*Workspace, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	w, found := r.workspaces[id]
	if !found {
		return nil, util.ErrNotFoundInStorage
	}
	return w.copy(), nil
}

// ListForMember returns the workspaces the user is a member of, oldest first
func (r *Repository) ListForMember(_ context.Context, userID string) []*Workspace {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	result := make([]*Workspace, 0)
	for _, w := range r.workspaces {
		if w.HasMember(userID) {
			result = append(result, w.copy())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Update applies the change to the workspace with the id
func (r *Repository) Update(_ context.Context, id string, change func(*Workspace) error) (*Workspace, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	w, found := r.workspaces[id]
	if !found {
		return nil, util.ErrNotFoundInStorage
	}
	updated := w.copy()
	if err := change(updated); err != nil {
		return nil, err
	}
	updated.UpdatedAt = r.now()
	r.workspaces[id] = updated
	return updated.copy(), nil
}

// Delete removes the workspace with the id
func (r *Repository) Delete(_ context.Context, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, found := r.workspaces[id]; !found {
		return util.ErrNotFoundInStorage
	}
	delete(r.workspaces, id)
	return nil
}
