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
	"reflect"
	"strings"
	"time"

	"github.com/fatih/structs"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
)

// parameter is a leaf configuration property of a settings struct
type parameter struct {
	Name        string
	Default     interface{}
	Description string
}

// CreatePFlags creates pflags for every leaf property of the value structure and adds them in the provided set.
// Property names are derived from the mapstructure tags (or field names) joined with dots.
func CreatePFlags(set *pflag.FlagSet, value interface{}) {
	for _, param := range collectParameters(value) {
		if set.Lookup(param.Name) != nil {
			continue
		}
		switch val := param.Default.(type) {
		case []string:
			set.StringSlice(param.Name, val, param.Description)
		case bool:
			set.Bool(param.Name, val, param.Description)
		case int:
			set.Int(param.Name, val, param.Description)
		case int64:
			set.Int64(param.Name, val, param.Description)
		case float64:
			set.Float64(param.Name, val, param.Description)
		case time.Duration:
			set.Duration(param.Name, val, param.Description)
		case string:
			set.String(param.Name, val, param.Description)
		default:
			set.Var(&flag{value: val}, param.Name, param.Description)
		}
	}
}

func collectParameters(value interface{}) []parameter {
	var params []parameter
	if structs.IsStruct(value) {
		walkStruct(value, "", "", &params)
	}
	return params
}

func walkStruct(value interface{}, prefix, parentDescription string, params *[]parameter) {
	for _, field := range structs.New(value).Fields() {
		if !field.IsExported() || field.Kind() == reflect.Map {
			continue
		}
		name := strings.SplitN(field.Tag("mapstructure"), ",", 2)[0]
		if name == "" {
			name = field.Name()
		}
		key := strings.ToLower(prefix + name)
		description := field.Tag("description")
		if description == "" {
			description = parentDescription
		}

		fieldValue := field.Value()
		if structs.IsStruct(fieldValue) {
			walkStruct(fieldValue, key+".", description, params)
			continue
		}
		if field.Kind() == reflect.Ptr {
			continue
		}
		*params = append(*params, parameter{
			Name:        key,
			Default:     fieldValue,
			Description: description,
		})
	}
}

// flag is a pflag.Value for property types without a dedicated pflag constructor
type flag struct {
	value interface{}
}

func (f *flag) String() string {
	return cast.ToString(f.value)
}

func (f *flag) Set(s string) error {
	f.value = s
	return nil
}

func (f *flag) Type() string {
	if f.value == nil {
		return "string"
	}
	return reflect.TypeOf(f.value).Name()
}
