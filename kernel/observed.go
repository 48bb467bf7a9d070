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

package kernel

import (
	"context"
	"sync"

	"github.com/Comcast/patter/storage"
)

// Observed is a live binding of a cached user or group record to one
// in-flight session.
//
// Reads see pending mutations first, then the snapshot.  Mutations
// accumulate in a diff that Flush pushes through the write-back
// function.  An Observed for an anonymous sender has no write-back,
// so its mutations die with the session.
type Observed struct {
	mu sync.Mutex

	data storage.Record
	diff storage.Record

	writeBack func(context.Context, storage.Record) error
}

func newObserved(data storage.Record, writeBack func(context.Context, storage.Record) error) *Observed {
	return &Observed{
		data:      data,
		diff:      storage.Record{},
		writeBack: writeBack,
	}
}

// Get returns the current value of a field: the pending mutation if
// there is one, the snapshot value otherwise.
func (o *Observed) Get(field string) interface{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	if v, have := o.diff[field]; have {
		return v
	}
	return o.data[field]
}

// GetInt is Get for numeric fields, tolerating the float64 that JSON
// decoding produces.
func (o *Observed) GetInt(field string) int64 {
	switch v := o.Get(field).(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// Set records a pending mutation.
func (o *Observed) Set(field string, value interface{}) {
	o.mu.Lock()
	o.diff[field] = value
	o.mu.Unlock()
}

// Has reports whether the binding covers the field (mutated or
// fetched, even if the value is nil).
func (o *Observed) Has(field string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, have := o.diff[field]; have {
		return true
	}
	_, have := o.data[field]
	return have
}

// Dirty reports whether any mutations are pending.
func (o *Observed) Dirty() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return 0 < len(o.diff)
}

// Flush pushes the pending diff through the write-back function and
// folds it into the snapshot.
//
// With no write-back (anonymous senders), the diff is folded in but
// nothing is persisted.
func (o *Observed) Flush(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.diff) == 0 {
		return nil
	}
	if o.writeBack != nil {
		if err := o.writeBack(ctx, o.diff.Copy()); err != nil {
			return err
		}
	}
	for k, v := range o.diff {
		o.data[k] = v
	}
	o.diff = storage.Record{}
	return nil
}

// missingFields returns the requested fields the binding doesn't
// cover yet.
func (o *Observed) missingFields(fields []string) []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	missing := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, have := o.diff[f]; have {
			continue
		}
		if _, have := o.data[f]; have {
			continue
		}
		missing = append(missing, f)
	}
	return missing
}

// merge folds freshly fetched fields into the snapshot without
// touching pending mutations, and returns the merged snapshot.
func (o *Observed) merge(r storage.Record) storage.Record {
	o.mu.Lock()
	defer o.mu.Unlock()
	for k, v := range r {
		o.data[k] = v
	}
	return o.data
}
