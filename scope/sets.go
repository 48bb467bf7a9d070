/* Copyright 2020 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package scope

import "sort"

// Set arithmetic on sorted, deduplicated id slices.  Every function
// returns a non-nil slice so that the include/exclude representation
// stays unambiguous.

// normalize sorts and deduplicates ids.
func normalize(ids []int64) []int64 {
	acc := make([]int64, 0, len(ids))
	acc = append(acc, ids...)
	sort.Slice(acc, func(i, j int) bool { return acc[i] < acc[j] })
	n := 0
	for i, id := range acc {
		if i == 0 || acc[n-1] != id {
			acc[n] = id
			n++
		}
	}
	return acc[:n]
}

func contains(ids []int64, id int64) bool {
	i := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
	return i < len(ids) && ids[i] == id
}

func copyIDs(ids []int64) []int64 {
	acc := make([]int64, len(ids))
	copy(acc, ids)
	return acc
}

func union(a, b []int64) []int64 {
	acc := make([]int64, 0, len(a)+len(b))
	acc = append(acc, a...)
	acc = append(acc, b...)
	return normalize(acc)
}

func intersection(a, b []int64) []int64 {
	acc := make([]int64, 0, len(a))
	for _, id := range a {
		if contains(b, id) {
			acc = append(acc, id)
		}
	}
	return acc
}

func difference(a, b []int64) []int64 {
	acc := make([]int64, 0, len(a))
	for _, id := range a {
		if !contains(b, id) {
			acc = append(acc, id)
		}
	}
	return acc
}

func subset(a, b []int64) bool {
	for _, id := range a {
		if !contains(b, id) {
			return false
		}
	}
	return true
}
