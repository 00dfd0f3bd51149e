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

package env

import (
	"fmt"
	"os"
	"strings"

	"github.com/bizsuite/backoffice/pkg/log"
	"github.com/cloudfoundry-community/go-cfenv"
	"github.com/spf13/cast"
)

// SSLRootCertFile is where the root certificate of a bound PostgreSQL service is written to
var SSLRootCertFile = "./root.crt"

// SetCFOverrides overrides parts of the environment with values from CF's VCAP environment variables.
// Nothing happens when the process is not running on Cloud Foundry.
func SetCFOverrides(env Environment) error {
	if _, exists := os.LookupEnv("VCAP_APPLICATION"); !exists {
		return nil
	}
	cfEnv, err := cfenv.Current()
	if err != nil {
		return fmt.Errorf("could not load VCAP environment: %s", err)
	}
	if cfEnv.Port != 0 {
		env.Set("server.port", cfEnv.Port)
	}

	if err := overrideStorage(env, cfEnv); err != nil {
		return err
	}
	return overrideRateLimiterStore(env, cfEnv)
}

func overrideStorage(env Environment, cfEnv *cfenv.App) error {
	serviceName := cast.ToString(env.Get("storage.name"))
	if serviceName == "" {
		log.D().Warning("No PostgreSQL service name found")
		return nil
	}
	service, err := cfEnv.Services.WithName(serviceName)
	if err != nil {
		return fmt.Errorf("could not find service with name %s: %v", serviceName, err)
	}
	env.Set("storage.uri", service.Credentials["uri"])

	if rootCert, ok := service.Credentials["sslrootcert"].(string); ok {
		env.Set("storage.sslmode", "verify-ca")
		env.Set("storage.sslrootcert", SSLRootCertFile)
		if err := os.WriteFile(SSLRootCertFile, []byte(strings.ReplaceAll(rootCert, `\n`, "\n")), 0600); err != nil {
			return fmt.Errorf("could not write PostgreSQL root certificate: %v", err)
		}
	}
	return nil
}

func overrideRateLimiterStore(env Environment, cfEnv *cfenv.App) error {
	serviceName := cast.ToString(env.Get("api.rate_limit_store_name"))
	if serviceName == "" {
		return nil
	}
	service, err := cfEnv.Services.WithName(serviceName)
	if err != nil {
		return fmt.Errorf("could not find service with name %s: %v", serviceName, err)
	}
	uri, ok := service.Credentials["uri"].(string)
	if !ok || uri == "" {
		return fmt.Errorf("service %s has no uri credential", serviceName)
	}
	env.Set("api.rate_limit_store_url", uri)
	return nil
}
