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

import "context"

type contextKey int

const (
	userKey contextKey = iota
	authenticationErrorKey
)

// AuthenticationType is the way a user proved its identity
type AuthenticationType int

const (
	// Bearer means the user presented a signed bearer token
	Bearer AuthenticationType = iota + 1
)

// UserContext holds the claims of the authenticated principal
type UserContext struct {
	// ID is the subject of the token
	ID string
	// Email is the email claim, if present
	Email string
	// Name is the display name claim, if present
	Name string
	// AuthenticationType is the way the user was authenticated
	AuthenticationType AuthenticationType
}

// UserFromContext gets the authenticated user from the context
func UserFromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userKey).(*UserContext)
	return user, ok && user != nil
}

// ContextWithUser sets the authenticated user in the context
func ContextWithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// ContextWithAuthenticationError stores the reason why authentication failed
func ContextWithAuthenticationError(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, authenticationErrorKey, err)
}

// AuthenticationErrorFromContext returns the authentication failure stored in the context, if any
func AuthenticationErrorFromContext(ctx context.Context) (bool, error) {
	err, ok := ctx.Value(authenticationErrorKey).(error)
	return ok && err != nil, err
}
