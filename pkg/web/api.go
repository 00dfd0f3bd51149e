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

// Package web exposes the extension points of the backoffice. Additional controllers and filters can be
// added to an already assembled API before the server is built.
package web

import (
	"strings"

	"github.com/bizsuite/backoffice/pkg/log"
	"github.com/bizsuite/backoffice/pkg/util/slice"
)

// API is the primary point for REST API registration
type API struct {
	// Controllers contains the registered controllers
	Controllers []Controller

	// Filters contains the registered filters in execution order
	Filters []Filter
}

// RegisterControllers registers a set of controllers
func (api *API) RegisterControllers(controllers ...Controller) {
	api.Controllers = append(api.Controllers, controllers...)
}

// RegisterFilters appends a set of filters
func (api *API) RegisterFilters(filters ...Filter) {
	api.validateFilters(filters...)
	api.Filters = append(api.Filters, filters...)
}

// RegisterFiltersBefore registers the specified filters right before the one with the given name.
// It panics if no such filter is registered.
func (api *API) RegisterFiltersBefore(beforeFilterName string, filters ...Filter) {
	for _, filter := range filters {
		log.D().Debugf("Registering filter %s before %s", filter.Name(), beforeFilterName)
		api.validateFilters(filter)
		api.insertFilterAt(api.filterPositionOrDie(beforeFilterName), filter)
	}
}

// RegisterFiltersAfter registers the specified filters right after the one with the given name, keeping their order.
// It panics if no such filter is registered.
func (api *API) RegisterFiltersAfter(afterFilterName string, filters ...Filter) {
	position := api.filterPositionOrDie(afterFilterName)
	for i, filter := range filters {
		log.D().Debugf("Registering filter %s after %s", filter.Name(), afterFilterName)
		api.validateFilters(filter)
		api.insertFilterAt(position+1+i, filter)
	}
}

// ReplaceFilter registers the given filter in the place of the filter with the given name
func (api *API) ReplaceFilter(replacedFilterName string, filter Filter) {
	log.D().Debugf("Replacing filter %s with %s", replacedFilterName, filter.Name())
	position := api.filterPositionOrDie(replacedFilterName)
	if replacedFilterName != filter.Name() {
		api.validateFilters(filter)
	}
	api.Filters[position] = filter
}

// RemoveFilter removes the filter with the given name
func (api *API) RemoveFilter(name string) {
	position := api.filterPositionOrDie(name)
	api.Filters = append(api.Filters[:position], api.Filters[position+1:]...)
}

func (api *API) insertFilterAt(position int, filter Filter) {
	api.Filters = append(api.Filters, nil)
	copy(api.Filters[position+1:], api.Filters[position:])
	api.Filters[position] = filter
}

func (api *API) filterPositionOrDie(name string) int {
	for i, filter := range api.Filters {
		if filter.Name() == name {
			return i
		}
	}
	log.D().Panicf("Filter with name %s is not found", name)
	return -1
}

func (api *API) validateFilters(filters ...Filter) {
	newNames := filterNames(filters)
	if slice.StringsAnyEquals(newNames, "") {
		log.D().Panicf("Filters cannot have empty names")
	}
	if common := slice.StringsIntersection(filterNames(api.Filters), newNames); len(common) > 0 {
		log.D().Panicf("Filters %q are already registered", common)
	}
	for _, name := range newNames {
		if strings.Contains(name, ":") {
			log.D().Panicf("Cannot register filters with : in their names. Invalid filter name: %q", name)
		}
	}
}

func filterNames(filters []Filter) []string {
	names := make([]string, 0, len(filters))
	for _, filter := range filters {
		names = append(names, filter.Name())
	}
	return names
}
