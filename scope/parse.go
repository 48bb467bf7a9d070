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

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadIdentifier means a scope identifier didn't parse.
//
// The grammar for a segment is
//
//	(direct|group|discuss)([+-]id(,id)*)?
//
// with segments joined by ";".
var ErrBadIdentifier = errors.New("malformed scope identifier")

// String gives the canonical serialization of the scope.  Two scopes
// are structurally equal iff their strings are equal.
//
// An include-form dimension appears as "group+1,2", an exclude-form
// dimension as "group-3" or as the bare dimension name when nothing
// is excluded.  Null dimensions are omitted.  The null scope
// serializes as "".
func (s Scope) String() string {
	segs := make([]string, 0, numDimensions)
	for d, sub := range s {
		name := dimensionNames[d]
		if sub.including() {
			if len(sub.Include) == 0 {
				continue
			}
			segs = append(segs, name+"+"+joinIDs(sub.Include))
			continue
		}
		if len(sub.Exclude) == 0 {
			segs = append(segs, name)
			continue
		}
		segs = append(segs, name+"-"+joinIDs(sub.Exclude))
	}
	return strings.Join(segs, ";")
}

// Parse is the inverse of String.
//
// Parse(s.String()) reproduces s for any s built from normalized
// Subscopes.  A segment that doesn't follow the grammar gets an
// ErrBadIdentifier.
func Parse(ident string) (Scope, error) {
	s := None()
	if ident == "" {
		return s, nil
	}
	for _, seg := range strings.Split(ident, ";") {
		d, rest, err := splitSegment(seg)
		if err != nil {
			return None(), err
		}
		s[d] = rest
	}
	return s, nil
}

func splitSegment(seg string) (Dimension, Subscope, error) {
	for d, name := range dimensionNames {
		if !strings.HasPrefix(seg, name) {
			continue
		}
		rest := seg[len(name):]
		if rest == "" {
			return Dimension(d), Without(), nil
		}
		sign := rest[0]
		if sign != '+' && sign != '-' {
			break
		}
		ids, err := parseIDs(rest[1:])
		if err != nil {
			return NoDimension, Subscope{}, fmt.Errorf("%w: %q", ErrBadIdentifier, seg)
		}
		if sign == '+' {
			return Dimension(d), Within(ids...), nil
		}
		return Dimension(d), Without(ids...), nil
	}
	return NoDimension, Subscope{}, fmt.Errorf("%w: %q", ErrBadIdentifier, seg)
}

func parseIDs(s string) ([]int64, error) {
	if s == "" {
		return nil, fmt.Errorf("empty id list")
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
