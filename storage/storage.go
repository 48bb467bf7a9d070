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

// Package storage defines the contract the kernel's entity cache uses
// to read and write user and group records, plus an in-memory
// implementation.  Real backends live in the subpackages.
package storage

import "context"

// Record is a partial user or group record: field name to value.
type Record map[string]interface{}

// Copy makes a shallow copy.
func (r Record) Copy() Record {
	acc := make(Record, len(r))
	for k, v := range r {
		acc[k] = v
	}
	return acc
}

// Pick returns a Record holding exactly the requested fields.  A
// field the source doesn't have appears with a nil value, so the
// result always covers the request.
func (r Record) Pick(fields []string) Record {
	acc := make(Record, len(fields))
	for _, f := range fields {
		acc[f] = r[f]
	}
	return acc
}

// Provider reads and writes persistent user and group records with
// field-level granularity.
//
// Get methods must return a Record containing at least the requested
// fields.  Set methods merge the given diff into the stored record.
type Provider interface {
	GetUser(ctx context.Context, id int64, fields []string) (Record, error)
	SetUser(ctx context.Context, id int64, diff Record) error
	GetGroup(ctx context.Context, id int64, fields []string) (Record, error)
	SetGroup(ctx context.Context, id int64, diff Record) error
}
