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

package util_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/bizsuite/backoffice/pkg/util"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Errors", func() {
	Describe("WriteError", func() {
		It("writes HTTPErrors as they are", func() {
			recorder := httptest.NewRecorder()
			util.WriteError(context.Background(), &util.HTTPError{ErrorType: "Conflict", Description: "dup", StatusCode: http.StatusConflict}, recorder)
			Expect(recorder.Code).To(Equal(http.StatusConflict))
			Expect(recorder.Body.String()).To(MatchJSON(`{"error":"Conflict","description":"dup"}`))
		})

		It("unwraps wrapped HTTPErrors", func() {
			recorder := httptest.NewRecorder()
			err := fmt.Errorf("listing: %w", util.NewBadRequestError("page must be >= 1"))
			util.WriteError(context.Background(), err, recorder)
			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
		})

		It("converts unsupported queries to bad requests", func() {
			recorder := httptest.NewRecorder()
			util.WriteError(context.Background(), &util.UnsupportedQueryError{Message: "bad filter"}, recorder)
			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			Expect(recorder.Body.String()).To(ContainSubstring("bad filter"))
		})

		It("hides unexpected errors", func() {
			recorder := httptest.NewRecorder()
			util.WriteError(context.Background(), errors.New("connection refused"), recorder)
			Expect(recorder.Code).To(Equal(http.StatusInternalServerError))
			Expect(recorder.Body.String()).ToNot(ContainSubstring("connection refused"))
		})
	})

	Describe("HandleStorageError", func() {
		It("returns nil for nil", func() {
			Expect(util.HandleStorageError(nil, "workspace")).To(BeNil())
		})

		It("maps not found to 404", func() {
			err := util.HandleStorageError(util.ErrNotFoundInStorage, "workspace")
			Expect(err.(*util.HTTPError).StatusCode).To(Equal(http.StatusNotFound))
			Expect(err.Error()).To(ContainSubstring("workspace"))
		})

		It("maps conflicts to 409", func() {
			err := util.HandleStorageError(fmt.Errorf("insert: %w", util.ErrAlreadyExistsInStorage), "")
			Expect(err.(*util.HTTPError).StatusCode).To(Equal(http.StatusConflict))
			Expect(err.Error()).To(ContainSubstring("entity"))
		})

		It("maps bad request storage errors to 400", func() {
			err := util.HandleStorageError(&util.ErrBadRequestStorage{Cause: errors.New("invalid input syntax")}, "event")
			Expect(err.(*util.HTTPError).StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("propagates other errors", func() {
			original := errors.New("boom")
			Expect(util.HandleStorageError(original, "event")).To(Equal(original))
		})
	})

	Describe("WaitWithTimeout", func() {
		It("reports completion", func() {
			wg := &sync.WaitGroup{}
			util.StartInWaitGroupWithContext(context.Background(), func(ctx context.Context) {}, wg)
			Expect(util.WaitWithTimeout(wg, time.Second)).To(BeTrue())
		})

		It("reports timeouts", func() {
			wg := &sync.WaitGroup{}
			release := make(chan struct{})
			util.StartInWaitGroupWithContext(context.Background(), func(ctx context.Context) { <-release }, wg)
			Expect(util.WaitWithTimeout(wg, 10*time.Millisecond)).To(BeFalse())
			close(release)
			Expect(util.WaitWithTimeout(wg, 0)).To(BeTrue())
		})
	})
})
