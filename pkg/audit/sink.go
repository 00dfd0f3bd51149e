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
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/bizsuite/backoffice/pkg/log"
)

// WriterSink writes every published event as a JSON line to the writer
type WriterSink struct {
	mutex  sync.Mutex
	Writer io.Writer
}

// NewStdoutSink returns a sink writing to the standard output
func NewStdoutSink() *WriterSink {
	return &WriterSink{Writer: os.Stdout}
}

// Publish implements Sink
func (s *WriterSink) Publish(ctx context.Context, event *Event) {
	formatted, err := json.Marshal(event)
	if err != nil {
		log.C(ctx).WithError(err).Errorf("Could not format audit event %s", event.ID)
		return
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, err := s.Writer.Write(append(formatted, '\n')); err != nil {
		log.C(ctx).WithError(err).Errorf("Could not write audit event %s", event.ID)
	}
}
