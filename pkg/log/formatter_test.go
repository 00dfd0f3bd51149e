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

package log_test

import (
	"bytes"
	"fmt"

	"github.com/bizsuite/backoffice/pkg/log"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
)

var _ = Describe("KibanaFormatter", func() {
	var buffer *bytes.Buffer
	var entry *logrus.Entry

	BeforeEach(func() {
		buffer = &bytes.Buffer{}
		logger := logrus.New()
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&log.KibanaFormatter{})
		logger.SetOutput(buffer)
		entry = logrus.NewEntry(logger)
	})

	It("writes the standard kibana fields", func() {
		entry.Debug("test")

		Expect(buffer.String()).To(ContainSubstring(`"correlation_id":"-"`))
		Expect(buffer.String()).To(ContainSubstring(`"component_type":"application"`))
		Expect(buffer.String()).To(ContainSubstring(`"level":"debug"`))
		Expect(buffer.String()).To(ContainSubstring(`"logger":"-"`))
		Expect(buffer.String()).To(ContainSubstring(`"type":"log"`))
		Expect(buffer.String()).To(ContainSubstring(`"written_at":`))
		Expect(buffer.String()).To(ContainSubstring(`"written_ts":`))
		Expect(buffer.String()).To(ContainSubstring(`"msg":"test"`))
	})

	It("uses the correlation id and component fields", func() {
		entry.WithField(log.FieldCorrelationID, "abc").WithField(log.FieldComponentName, "audit").Info("test")

		Expect(buffer.String()).To(ContainSubstring(`"correlation_id":"abc"`))
		Expect(buffer.String()).To(ContainSubstring(`"logger":"audit"`))
		Expect(buffer.String()).ToNot(ContainSubstring(`"component":`))
	})

	It("appends the error to the message", func() {
		err := fmt.Errorf("error message")
		entry.WithError(err).Error("test message")

		Expect(buffer.String()).To(ContainSubstring(`"level":"error"`))
		Expect(buffer.String()).To(ContainSubstring(`"msg":"test message: error message"`))
	})

	It("does not nest custom fields", func() {
		entry.WithField("test_field", "test_value").Debug("test")

		Expect(buffer.String()).To(ContainSubstring(`"test_field":"test_value"`))
	})
})
