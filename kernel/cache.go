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
	"time"

	"github.com/Comcast/patter/storage"
)

// cacheEntry is one cached record with its fetch time.
type cacheEntry struct {
	data    storage.Record
	fetched time.Time
}

// entityCache is the keyed, TTL'd record cache for one entity kind.
// Owned by an App, never package-global.
//
// Two sessions arriving for the same uncached id can both fetch and
// both store, last write winning.  That's a known, benign race; the
// mutex here only keeps the map itself coherent.
type entityCache struct {
	mu      sync.Mutex
	timeout time.Duration
	entries map[int64]*cacheEntry
}

func newEntityCache(timeout time.Duration) *entityCache {
	return &entityCache{
		timeout: timeout,
		entries: make(map[int64]*cacheEntry),
	}
}

// lookup returns a cached record that is younger than the timeout and
// covers every requested field.
func (c *entityCache) lookup(id int64, fields []string) (storage.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, have := c.entries[id]
	if !have {
		return nil, false
	}
	if c.timeout <= time.Since(e.fetched) {
		return nil, false
	}
	for _, f := range fields {
		if _, have := e.data[f]; !have {
			return nil, false
		}
	}
	return e.data, true
}

// put stores a record with a fresh timestamp.
func (c *entityCache) put(id int64, data storage.Record) {
	c.mu.Lock()
	c.entries[id] = &cacheEntry{data: data, fetched: time.Now()}
	c.mu.Unlock()
}

// ObserveUser binds the sender's user record to the session (or
// extends an existing binding) covering at least the given fields.
//
// An already-bound record is topped up: only fields the binding
// doesn't cover yet are fetched, merged in, and re-cached with a
// fresh timestamp.  Otherwise a valid cache entry is reused when its
// field set covers the request; a miss fetches exactly the requested
// fields and caches them.  Anonymous senders get a synthesized record
// holding the resolved default authority, uncached and with no
// write-back.
func (a *App) ObserveUser(ctx context.Context, s *Session, fields ...string) (*Observed, error) {
	if s.User != nil {
		if s.Anonymous {
			return s.User, nil
		}
		missing := s.User.missingFields(fields)
		if 0 < len(missing) {
			r, err := a.store.GetUser(ctx, s.SenderID, missing)
			if err != nil {
				return nil, err
			}
			a.users.put(s.SenderID, s.User.merge(r))
		}
		return s.User, nil
	}

	if s.Anonymous {
		s.User = newObserved(storage.Record{
			"id":        s.SenderID,
			"authority": a.resolveAuthority(s),
		}, nil)
		return s.User, nil
	}

	id := s.SenderID
	data, hit := a.users.lookup(id, fields)
	if !hit {
		r, err := a.store.GetUser(ctx, id, fields)
		if err != nil {
			return nil, err
		}
		data = r
		a.users.put(id, data)
	}

	s.User = newObserved(data, func(ctx context.Context, diff storage.Record) error {
		return a.store.SetUser(ctx, id, diff)
	})
	return s.User, nil
}

// ObserveGroup is ObserveUser for the session's group record, keyed
// by the conversation id.  Groups have no anonymous case.
func (a *App) ObserveGroup(ctx context.Context, s *Session, fields ...string) (*Observed, error) {
	id := s.DimensionID

	if s.Group != nil {
		missing := s.Group.missingFields(fields)
		if 0 < len(missing) {
			r, err := a.store.GetGroup(ctx, id, missing)
			if err != nil {
				return nil, err
			}
			a.groups.put(id, s.Group.merge(r))
		}
		return s.Group, nil
	}

	data, hit := a.groups.lookup(id, fields)
	if !hit {
		r, err := a.store.GetGroup(ctx, id, fields)
		if err != nil {
			return nil, err
		}
		data = r
		a.groups.put(id, data)
	}

	s.Group = newObserved(data, func(ctx context.Context, diff storage.Record) error {
		return a.store.SetGroup(ctx, id, diff)
	})
	return s.Group, nil
}
