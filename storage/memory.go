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

package storage

import (
	"context"
	"sync"
)

// Memory is a Provider backed by in-process maps.
//
// Not glamorous or durable.  Useful for tests and demos.
type Memory struct {
	sync.Mutex

	users  map[int64]Record
	groups map[int64]Record
}

func NewMemory() *Memory {
	return &Memory{
		users:  make(map[int64]Record),
		groups: make(map[int64]Record),
	}
}

// SeedUser installs a user record, replacing any previous one.
func (m *Memory) SeedUser(id int64, r Record) {
	m.Lock()
	m.users[id] = r.Copy()
	m.Unlock()
}

// SeedGroup installs a group record, replacing any previous one.
func (m *Memory) SeedGroup(id int64, r Record) {
	m.Lock()
	m.groups[id] = r.Copy()
	m.Unlock()
}

func (m *Memory) GetUser(ctx context.Context, id int64, fields []string) (Record, error) {
	return m.get(m.users, id, fields)
}

func (m *Memory) SetUser(ctx context.Context, id int64, diff Record) error {
	return m.set(m.users, id, diff)
}

func (m *Memory) GetGroup(ctx context.Context, id int64, fields []string) (Record, error) {
	return m.get(m.groups, id, fields)
}

func (m *Memory) SetGroup(ctx context.Context, id int64, diff Record) error {
	return m.set(m.groups, id, diff)
}

func (m *Memory) get(table map[int64]Record, id int64, fields []string) (Record, error) {
	m.Lock()
	defer m.Unlock()
	r, have := table[id]
	if !have {
		r = Record{}
	}
	return r.Pick(fields), nil
}

func (m *Memory) set(table map[int64]Record, id int64, diff Record) error {
	m.Lock()
	defer m.Unlock()
	r, have := table[id]
	if !have {
		r = Record{}
		table[id] = r
	}
	for k, v := range diff {
		r[k] = v
	}
	return nil
}
