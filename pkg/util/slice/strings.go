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

// Package slice contains helpers for string slices
package slice

import "strings"

// StringsIntersection returns the elements of str1 that are also present in str2
func StringsIntersection(str1, str2 []string) []string {
	present := make(map[string]struct{}, len(str2))
	for _, v := range str2 {
		present[v] = struct{}{}
	}
	var intersection []string
	for _, v := range str1 {
		if _, ok := present[v]; ok {
			intersection = append(intersection, v)
		}
	}
	return intersection
}

// StringsAnyEquals returns true if any of the strings in the slice equal the given string
func StringsAnyEquals(stringSlice []string, str string) bool {
	for _, v := range stringSlice {
		if v == str {
			return true
		}
	}
	return false
}

// StringsDistinctUpper upper-cases and trims the strings, dropping empty values and duplicates while keeping order
func StringsDistinctUpper(stringSlice []string) []string {
	seen := make(map[string]struct{}, len(stringSlice))
	result := make([]string, 0, len(stringSlice))
	for _, v := range stringSlice {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
