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

package log

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// KibanaFormatter is a logrus formatter producing flat JSON documents suitable for Kibana
type KibanaFormatter struct{}

// Format formats a logrus entry as a single line JSON document
func (f *KibanaFormatter) Format(e *logrus.Entry) ([]byte, error) {
	doc := make(map[string]interface{}, len(e.Data)+8)
	for key, value := range e.Data {
		switch v := value.(type) {
		case error:
			doc[key] = v.Error()
		default:
			doc[key] = v
		}
	}

	message := e.Message
	if errorField, ok := e.Data[logrus.ErrorKey].(error); ok {
		message = message + ": " + errorField.Error()
		delete(doc, logrus.ErrorKey)
	}

	doc["logger"] = stringOrDash(e.Data[FieldComponentName])
	delete(doc, FieldComponentName)
	doc[FieldCorrelationID] = stringOrDash(e.Data[FieldCorrelationID])
	doc["msg"] = message
	doc["level"] = e.Level.String()
	doc["type"] = "log"
	doc["component_type"] = "application"
	doc["written_at"] = e.Time.UTC().Format(time.RFC3339Nano)
	doc["written_ts"] = strconv.FormatInt(e.Time.UTC().Unix(), 10)

	serialized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fields to JSON: %v", err)
	}
	return append(serialized, '\n'), nil
}

func stringOrDash(value interface{}) string {
	if s, ok := value.(string); ok && s != "" {
		return s
	}
	return "-"
}
