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

// Package util contains web utils for APIs and error handling
package util

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/bizsuite/backoffice/pkg/log"
	"github.com/bizsuite/backoffice/pkg/web"
)

// EmptyResponseBody represents an empty response body value
type EmptyResponseBody struct{}

// InputValidator should be implemented by types that need input validation beyond struct tags
type InputValidator interface {
	Validate() error
}

// BodyToBytes reads the whole body and closes it
func BodyToBytes(closer io.ReadCloser) ([]byte, error) {
	defer func() {
		if err := closer.Close(); err != nil {
			log.D().Errorf("could not close body: %v", err)
		}
	}()
	return io.ReadAll(closer)
}

// RequestBodyToBytes reads the request body and returns its content or an error if
// the media type is incorrect or if the body is not a valid JSON
func RequestBodyToBytes(request *http.Request) ([]byte, error) {
	body, err := BodyToBytes(request.Body)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return body, nil
	}

	if contentType := request.Header.Get("Content-Type"); !strings.Contains(contentType, "application/json") {
		return nil, &HTTPError{
			ErrorType:   "InvalidMediaType",
			Description: "invalid media type provided",
			StatusCode:  http.StatusUnsupportedMediaType,
		}
	}

	if !json.Valid(body) {
		return nil, &HTTPError{
			ErrorType:   "BadRequest",
			Description: "request body is not valid JSON",
			StatusCode:  http.StatusBadRequest,
		}
	}
	return body, nil
}

// BytesToObject converts the provided bytes to object and validates it
func BytesToObject(bytes []byte, object interface{}) error {
	if err := json.Unmarshal(bytes, object); err != nil {
		log.D().Error("Failed to decode request body: ", err)
		return &HTTPError{
			ErrorType:   "BadRequest",
			Description: "Failed to decode request body",
			StatusCode:  http.StatusBadRequest,
		}
	}
	return ValidateStruct(object)
}

// WriteJSON writes a JSON value and sets the specified HTTP Status code
func WriteJSON(writer http.ResponseWriter, code int, value interface{}) error {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(code)
	return json.NewEncoder(writer).Encode(value)
}

// NewJSONResponse turns a plain object into a JSON body wrapped in a web.Response
func NewJSONResponse(code int, value interface{}) (*web.Response, error) {
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")

	body := make([]byte, 0)
	var err error
	if _, ok := value.(EmptyResponseBody); !ok {
		body, err = json.Marshal(value)
	}

	return &web.Response{
		StatusCode: code,
		Header:     headers,
		Body:       body,
	}, err
}
