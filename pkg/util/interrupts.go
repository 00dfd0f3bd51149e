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
	"os"
	"os/signal"
	"syscall"

	"github.com/bizsuite/backoffice/pkg/log"
)

// HandleInterrupts cancels the context when the process receives SIGINT or SIGTERM
func HandleInterrupts(ctx context.Context, cancel context.CancelFunc) {
	term := make(chan os.Signal, 1)
	signal.Notify(term, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(term)
		select {
		case sig := <-term:
			log.C(ctx).Errorf("Received %s, exiting gracefully...", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
}
