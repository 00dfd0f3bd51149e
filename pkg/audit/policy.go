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
	"github.com/gofrs/uuid"
	"github.com/tidwall/gjson"
)

// ValidIdentity reports whether the id identifies a principal
func ValidIdentity(id string) bool {
	parsed, err := uuid.FromString(id)
	return err == nil && parsed != uuid.Nil
}

// PrincipalDetails returns the userId and email of the principal. It returns false when the request
// has no principal with a valid identity, in which case the event should be suppressed.
func PrincipalDetails(req *RequestContext) (Details, bool) {
	if req.Principal == nil || !ValidIdentity(req.Principal.ID) {
		return nil, false
	}
	details := Details{"userId": req.Principal.ID}
	if req.Principal.Email != "" {
		details["email"] = req.Principal.Email
	}
	return details, true
}

// BodyFields returns the top-level keys of a JSON object in document order
func BodyFields(body gjson.Result) []string {
	fields := []string{}
	if !body.IsObject() {
		return fields
	}
	body.ForEach(func(key, _ gjson.Result) bool {
		fields = append(fields, key.String())
		return true
	})
	return fields
}

// WithPrincipal builds an extractor that suppresses events of requests without a valid principal and
// adds the principal details to the fields returned by extra. extra may be nil.
func WithPrincipal(extra DetailExtractor) DetailExtractor {
	return func(response gjson.Result, req *RequestContext) (Details, error) {
		details, ok := PrincipalDetails(req)
		if !ok {
			return nil, nil
		}
		if extra == nil {
			return details, nil
		}
		fields, err := extra(response, req)
		if err != nil {
			return nil, err
		}
		if fields == nil {
			return nil, nil
		}
		for k, v := range fields {
			details[k] = v
		}
		return details, nil
	}
}
