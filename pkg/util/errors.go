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

package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bizsuite/backoffice/pkg/log"
)

// HTTPError is an error type that provides error details that the error handlers propagate to the client
type HTTPError struct {
	ErrorType   string `json:"error,omitempty"`
	Description string `json:"description,omitempty"`
	StatusCode  int    `json:"-"`
}

// Error HTTPError should implement error
func (e *HTTPError) Error() string {
	return e.Description
}

// UnsupportedQueryError is an error to show that the provided query cannot be executed
type UnsupportedQueryError struct {
	Message string
}

func (uq *UnsupportedQueryError) Error() string {
	return uq.Message
}

// NewBadRequestError returns a 400 HTTPError with the given formatted description
func NewBadRequestError(format string, args ...interface{}) *HTTPError {
	return &HTTPError{
		ErrorType:   "BadRequest",
		Description: fmt.Sprintf(format, args...),
		StatusCode:  http.StatusBadRequest,
	}
}

// ToHTTPError converts any error into the HTTPError that will be sent to the client
func ToHTTPError(ctx context.Context, err error) *HTTPError {
	logger := log.C(ctx)
	var httpErr *HTTPError
	var queryErr *UnsupportedQueryError
	switch {
	case errors.As(err, &httpErr):
		logger.Errorf("HTTPError: %s", err)
		return httpErr
	case errors.As(err, &queryErr):
		logger.Errorf("UnsupportedQueryError: %s", err)
		return NewBadRequestError("%s", queryErr.Message)
	default:
		logger.Errorf("Unexpected error: %s", err)
		return &HTTPError{
			ErrorType:   "InternalError",
			Description: "Internal server error",
			StatusCode:  http.StatusInternalServerError,
		}
	}
}

// WriteError sends a JSON containing the error to the response writer
func WriteError(ctx context.Context, err error, writer http.ResponseWriter) {
	respError := ToHTTPError(ctx, err)
	if sendErr := WriteJSON(writer, respError.StatusCode, respError); sendErr != nil {
		log.C(ctx).Errorf("Could not write error to response: %v", sendErr)
	}
}

var (
	// ErrNotFoundInStorage error returned from storage when entity is not found
	ErrNotFoundInStorage = errors.New("not found")

	// ErrAlreadyExistsInStorage error returned from storage when entity has conflicting fields
	ErrAlreadyExistsInStorage = errors.New("unique constraint violation")
)

// ErrBadRequestStorage represents a storage error that should be translated to http.StatusBadRequest
type ErrBadRequestStorage struct {
	Cause error
}

func (e *ErrBadRequestStorage) Error() string {
	return e.Cause.Error()
}

func (e *ErrBadRequestStorage) Unwrap() error {
	return e.Cause
}

// HandleStorageError converts storage errors to relevant HTTPErrors
func HandleStorageError(err error, entityName string) error {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return err
	}
	if len(entityName) == 0 {
		entityName = "entity"
	}

	var badRequest *ErrBadRequestStorage
	switch {
	case errors.Is(err, ErrAlreadyExistsInStorage):
		return &HTTPError{
			ErrorType:   "Conflict",
			Description: fmt.Sprintf("found conflicting %s", entityName),
			StatusCode:  http.StatusConflict,
		}
	case errors.Is(err, ErrNotFoundInStorage):
		return &HTTPError{
			ErrorType:   "NotFound",
			Description: fmt.Sprintf("could not find such %s", entityName),
			StatusCode:  http.StatusNotFound,
		}
	case errors.As(err, &badRequest):
		return NewBadRequestError("storage err: %s", badRequest.Error())
	default:
		return err
	}
}
