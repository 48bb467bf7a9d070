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

// Package scope implements the include/exclude id-set algebra that
// restricts hooks and commands to subsets of conversations.
//
// A Scope has one Subscope per conversation dimension (direct
// message, group, multi-user discussion).  A Subscope is either a
// finite set of ids (include form) or the complement of one (exclude
// form).  The algebra (Plus, Minus, Intersect, Inverse, Contain) is
// pure and total over well-formed values.
package scope

// Dimension is one of the three conversation kinds that a Scope
// restricts independently.
type Dimension int

const (
	Direct Dimension = iota
	Group
	Discuss

	// NoDimension tags events that aren't tied to any
	// conversation.  Such events match every scope.
	NoDimension Dimension = -1

	numDimensions = 3
)

var dimensionNames = [numDimensions]string{"direct", "group", "discuss"}

func (d Dimension) String() string {
	if d < 0 || numDimensions <= int(d) {
		return "none"
	}
	return dimensionNames[d]
}

// ParseDimension maps a dimension name to its Dimension.
func ParseDimension(name string) (Dimension, bool) {
	for i, n := range dimensionNames {
		if n == name {
			return Dimension(i), true
		}
	}
	return NoDimension, false
}

// Subscope restricts one dimension.
//
// Exactly one of Include and Exclude is effective.  With Include
// present, an id matches iff it's in Include.  Otherwise an id
// matches iff it's not in Exclude.  Both slices are kept sorted and
// deduplicated.
//
// The zero Subscope has both sides nil, which is read as an empty
// Include: it matches nothing.
type Subscope struct {
	Include []int64 `json:"include,omitempty" yaml:"include,omitempty"`
	Exclude []int64 `json:"exclude,omitempty" yaml:"exclude,omitempty"`
}

// Within makes an include-form Subscope matching exactly the given ids.
func Within(ids ...int64) Subscope {
	return Subscope{Include: normalize(ids)}
}

// Without makes an exclude-form Subscope matching everything but the
// given ids.
func Without(ids ...int64) Subscope {
	return Subscope{Exclude: normalize(ids)}
}

// including reports whether the Subscope is in include form.
func (s Subscope) including() bool {
	return s.Include != nil || s.Exclude == nil
}

// Match reports whether the id is in the set this Subscope describes.
func (s Subscope) Match(id int64) bool {
	if s.including() {
		return contains(s.Include, id)
	}
	return !contains(s.Exclude, id)
}

// IsNull reports whether the Subscope matches nothing.
func (s Subscope) IsNull() bool {
	return s.including() && len(s.Include) == 0
}

// Plus is the union of the two sets.
func (s Subscope) Plus(t Subscope) Subscope {
	switch {
	case s.including() && t.including():
		return Subscope{Include: union(s.Include, t.Include)}
	case s.including():
		return Subscope{Exclude: difference(t.Exclude, s.Include)}
	case t.including():
		return Subscope{Exclude: difference(s.Exclude, t.Include)}
	default:
		return Subscope{Exclude: intersection(s.Exclude, t.Exclude)}
	}
}

// Intersect is the intersection of the two sets.
func (s Subscope) Intersect(t Subscope) Subscope {
	switch {
	case s.including() && t.including():
		return Subscope{Include: intersection(s.Include, t.Include)}
	case s.including():
		return Subscope{Include: difference(s.Include, t.Exclude)}
	case t.including():
		return Subscope{Include: difference(t.Include, s.Exclude)}
	default:
		return Subscope{Exclude: union(s.Exclude, t.Exclude)}
	}
}

// Minus removes t's set from s's.
func (s Subscope) Minus(t Subscope) Subscope {
	switch {
	case s.including() && t.including():
		return Subscope{Include: difference(s.Include, t.Include)}
	case s.including():
		return Subscope{Include: intersection(s.Include, t.Exclude)}
	case t.including():
		return Subscope{Exclude: union(t.Include, s.Exclude)}
	default:
		return Subscope{Exclude: difference(t.Exclude, s.Exclude)}
	}
}

// Inverse swaps the roles of the two sides, exactly negating the
// matching predicate.
func (s Subscope) Inverse() Subscope {
	if s.including() {
		return Subscope{Exclude: copyIDs(s.Include)}
	}
	return Subscope{Include: copyIDs(s.Exclude)}
}

// Contain reports whether every id matched by t is also matched by s.
func (s Subscope) Contain(t Subscope) bool {
	if t.including() {
		for _, id := range t.Include {
			if !s.Match(id) {
				return false
			}
		}
		return true
	}
	// t matches a cofinite set, so s must too, and s can exclude
	// only ids that t also excludes.
	if s.including() {
		return false
	}
	return subset(s.Exclude, t.Exclude)
}

// Copy makes a deep copy.
func (s Subscope) Copy() Subscope {
	if s.including() {
		return Subscope{Include: copyIDs(s.Include)}
	}
	return Subscope{Exclude: copyIDs(s.Exclude)}
}

// Scope restricts all three dimensions at once.  Index it with a
// Dimension.
type Scope [numDimensions]Subscope

// All matches every conversation.
func All() Scope {
	return Scope{Without(), Without(), Without()}
}

// None matches nothing (the null scope).
func None() Scope {
	return Scope{Within(), Within(), Within()}
}

// Only matches the given ids in the given dimension and nothing
// anywhere else.  With no ids, it matches the entire dimension.
func Only(d Dimension, ids ...int64) Scope {
	var s Scope
	if len(ids) == 0 {
		s[d] = Without()
	} else {
		s[d] = Within(ids...)
	}
	return s
}

// Match reports whether the conversation (d, id) is in the scope.
//
// NoDimension matches unconditionally; that's how dimension-agnostic
// events reach every hook.
func (s Scope) Match(d Dimension, id int64) bool {
	if d < 0 || numDimensions <= int(d) {
		return true
	}
	return s[d].Match(id)
}

// IsNull reports whether the scope matches nothing at all.
func (s Scope) IsNull() bool {
	for _, sub := range s {
		if !sub.IsNull() {
			return false
		}
	}
	return true
}

// Plus is the per-dimension union.
func (s Scope) Plus(t Scope) Scope {
	var acc Scope
	for d := range s {
		acc[d] = s[d].Plus(t[d])
	}
	return acc
}

// Minus is the per-dimension difference.
func (s Scope) Minus(t Scope) Scope {
	var acc Scope
	for d := range s {
		acc[d] = s[d].Minus(t[d])
	}
	return acc
}

// Intersect is the per-dimension intersection.
func (s Scope) Intersect(t Scope) Scope {
	var acc Scope
	for d := range s {
		acc[d] = s[d].Intersect(t[d])
	}
	return acc
}

// Inverse negates every dimension.
func (s Scope) Inverse() Scope {
	var acc Scope
	for d := range s {
		acc[d] = s[d].Inverse()
	}
	return acc
}

// Contain reports whether s contains t in every dimension.
func (s Scope) Contain(t Scope) bool {
	for d := range s {
		if !s[d].Contain(t[d]) {
			return false
		}
	}
	return true
}

// Copy makes a deep copy.
func (s Scope) Copy() Scope {
	var acc Scope
	for d := range s {
		acc[d] = s[d].Copy()
	}
	return acc
}
