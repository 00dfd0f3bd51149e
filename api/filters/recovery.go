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
	"net/http"
	"runtime/debug"

	"github.com/bizsuite/backoffice/pkg/log"
	"github.com/bizsuite/backoffice/pkg/util"
)

// Recovery is a router middleware that turns panics of the handlers into 500 responses
func Recovery(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				httpError := &util.HTTPError{
					ErrorType:   "InternalError",
					Description: "Internal Server Error",
					StatusCode:  http.StatusInternalServerError,
				}
				log.C(r.Context()).WithField("stack", string(debug.Stack())).Error(err)
				util.WriteError(r.Context(), httpError, w)
			}
		}()
		handler.ServeHTTP(w, r)
	})
}
