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

package filters

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bizsuite/backoffice/pkg/log"
	"github.com/bizsuite/backoffice/pkg/web"
	"github.com/go-jose/go-jose/v3"
	"github.com/go-jose/go-jose/v3/jwt"
)

// AuthenticationFilterName is the name of the authentication filter
const AuthenticationFilterName = "AuthenticationFilter"

var errMissingSubject = errors.New("token has no subject")

type tokenClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Authentication resolves the principal of requests carrying an HS256 signed bearer token.
// Requests without a token pass unauthenticated. Invalid tokens are recorded in the request context
// and rejected by RequiredAuthentication on protected paths.
type Authentication struct {
	key    []byte
	issuer string
	now    func() time.Time
}

// NewAuthentication creates an authentication filter verifying tokens with the signing key.
// When issuer is not empty, tokens must be issued by it.
func NewAuthentication(signingKey, issuer string) *Authentication {
	return &Authentication{
		key:    []byte(signingKey),
		issuer: issuer,
		now:    time.Now,
	}
}

// Name implements the web.Filter interface
func (*Authentication) Name() string {
	return AuthenticationFilterName
}

// Run implements the web.Filter interface
func (a *Authentication) Run(req *web.Request, next web.Handler) (*web.Response, error) {
	ctx := req.Context()
	header := req.Header.Get("Authorization")
	if header == "" {
		return next.Handle(req)
	}

	user, err := a.authenticate(header)
	if err != nil {
		log.C(ctx).WithError(err).Debug("Bearer authentication failed")
		req.Request = req.WithContext(web.ContextWithAuthenticationError(ctx, err))
		return next.Handle(req)
	}
	req.Request = req.WithContext(web.ContextWithUser(ctx, user))
	return next.Handle(req)
}

func (a *Authentication) authenticate(header string) (*web.UserContext, error) {
	scheme, raw, found := strings.Cut(header, " ")
	raw = strings.TrimSpace(raw)
	if !found || !strings.EqualFold(scheme, "bearer") || raw == "" {
		return nil, errors.New("authorization header is not a bearer token")
	}
	token, err := jwt.ParseSigned(raw)
	if err != nil {
		return nil, fmt.Errorf("could not parse token: %w", err)
	}
	if len(token.Headers) != 1 || token.Headers[0].Algorithm != string(jose.HS256) {
		return nil, errors.New("unsupported token signature algorithm")
	}

	var registered jwt.Claims
	var custom tokenClaims
	if err := token.Claims(a.key, &registered, &custom); err != nil {
		return nil, fmt.Errorf("could not verify token: %w", err)
	}
	if err := registered.ValidateWithLeeway(jwt.Expected{
		Issuer: a.issuer,
		Time:   a.now(),
	}, jwt.DefaultLeeway); err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if registered.Subject == "" {
		return nil, errMissingSubject
	}

	return &web.UserContext{
		ID:                 registered.Subject,
		Email:              custom.Email,
		Name:               custom.Name,
		AuthenticationType: web.Bearer,
	}, nil
}

// FilterMatchers implements the web.Filter interface
func (*Authentication) FilterMatchers() []web.FilterMatcher {
	return []web.FilterMatcher{
		{
			Matchers: []web.Matcher{
				web.Path("/**"),
			},
		},
	}
}
