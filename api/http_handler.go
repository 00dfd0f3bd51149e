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

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bizsuite/backoffice/pkg/log"
	"github.com/bizsuite/backoffice/pkg/util"
	"github.com/bizsuite/backoffice/pkg/web"
	"github.com/gorilla/mux"
)

// HTTPHandler converts a pkg/web.Handler and pkg/web.HandlerFunc to a standard http.Handler
type HTTPHandler struct {
	Handler            web.Handler
	timeout            time.Duration
	requestBodyMaxSize int
}

// NewHTTPHandler creates a new HTTPHandler from the provided web.Handler
func NewHTTPHandler(handler web.Handler, timeout time.Duration, requestBodyMaxSize int) *HTTPHandler {
	return &HTTPHandler{
		Handler:            handler,
		timeout:            timeout,
		requestBodyMaxSize: requestBodyMaxSize,
	}
}

// Handle implements the web.Handler interface
func (h *HTTPHandler) Handle(req *web.Request) (resp *web.Response, err error) {
	return h.Handler.Handle(req)
}

type handlerResult struct {
	response *web.Response
	err      error
	panicked interface{}
}

// ServeHTTP implements the http.Handler interface and allows wrapping web.Handlers into http.Handlers
func (h *HTTPHandler) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	req.Body = http.MaxBytesReader(res, req.Body, int64(h.requestBodyMaxSize))
	request, err := convertToWebRequest(req)
	if err != nil {
		util.WriteError(ctx, err, res)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	request.Request = request.WithContext(ctxWithTimeout)

	resultCh := make(chan handlerResult, 1)
	go func() {
		result := handlerResult{}
		defer func() {
			if p := recover(); p != nil {
				result.panicked = p
			}
			resultCh <- result
		}()
		result.response, result.err = h.Handler.Handle(request)
	}()

	var result handlerResult
	select {
	case result = <-resultCh:
	case <-ctxWithTimeout.Done():
		log.C(ctx).Errorf("Request %s %s did not complete within %s", req.Method, req.URL.Path, h.timeout)
		util.WriteError(ctx, &util.HTTPError{
			ErrorType:   "Timeout",
			Description: "request did not complete in time",
			StatusCode:  http.StatusServiceUnavailable,
		}, res)
		return
	}

	// the logging filter enriches the request context with a logger
	ctx = request.Context()
	if result.panicked != nil {
		panic(result.panicked)
	}
	if result.err != nil {
		util.WriteError(ctx, result.err, res)
		return
	}
	writeResponse(ctx, res, result.response)
}

func writeResponse(ctx context.Context, res http.ResponseWriter, response *web.Response) {
	if response == nil {
		res.WriteHeader(http.StatusNoContent)
		return
	}
	for k, v := range response.Header {
		if k != "Content-Length" {
			res.Header()[k] = v
		}
	}
	res.WriteHeader(response.StatusCode)
	if _, err := res.Write(response.Body); err != nil {
		// HTTP headers and status are sent already
		log.C(ctx).WithError(err).Error("Error sending response")
	}
}

func convertToWebRequest(request *http.Request) (*web.Request, error) {
	var body []byte
	var err error
	switch request.Method {
	case http.MethodPut, http.MethodPost, http.MethodPatch:
		body, err = util.RequestBodyToBytes(request)
		if err != nil {
			return nil, payloadTooLargeErr(err)
		}
	}

	return &web.Request{
		Request:    request,
		PathParams: mux.Vars(request),
		Body:       body,
	}, nil
}

func payloadTooLargeErr(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return &util.HTTPError{
			StatusCode:  http.StatusRequestEntityTooLarge,
			ErrorType:   "PayloadTooLarge",
			Description: "Payload too large",
		}
	}
	return err
}
