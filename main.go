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

package main

import (
	"context"

	"github.com/bizsuite/backoffice/pkg/backoffice"
	"github.com/bizsuite/backoffice/pkg/log"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env, err := backoffice.DefaultEnv(ctx)
	if err != nil {
		log.C(ctx).Fatal("Error loading environment: ", err)
	}

	builder, err := backoffice.New(ctx, cancel, env)
	if err != nil {
		log.C(ctx).Fatal("Error creating the backoffice: ", err)
	}
	builder.Build().Run()
}
