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

// Package redis is a storage.Provider backed by Redis hashes: one
// hash per entity, one hash field per record field, values
// JSON-encoded.  Redis's field-level reads (HMGET) line up exactly
// with the kernel's field-granular fetch contract.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Comcast/patter/storage"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	rdb    *redis.Client
	prefix string
}

// New creates a Store over a Redis connection.  All keys are
// namespaced with the prefix, so several bots can share a server.
func New(opts *redis.Options, prefix string) (*Store, error) {
	if prefix == "" {
		return nil, fmt.Errorf("empty key prefix")
	}
	return &Store{
		rdb:    redis.NewClient(opts),
		prefix: prefix,
	}, nil
}

// NewFromClient wraps an existing client (handy for tests).
func NewFromClient(rdb *redis.Client, prefix string) *Store {
	return &Store{rdb: rdb, prefix: prefix}
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) key(kind string, id int64) string {
	return fmt.Sprintf("%s:%s:%d", s.prefix, kind, id)
}

func (s *Store) GetUser(ctx context.Context, id int64, fields []string) (storage.Record, error) {
	return s.get(ctx, s.key("user", id), fields)
}

func (s *Store) SetUser(ctx context.Context, id int64, diff storage.Record) error {
	return s.set(ctx, s.key("user", id), diff)
}

func (s *Store) GetGroup(ctx context.Context, id int64, fields []string) (storage.Record, error) {
	return s.get(ctx, s.key("group", id), fields)
}

func (s *Store) SetGroup(ctx context.Context, id int64, diff storage.Record) error {
	return s.set(ctx, s.key("group", id), diff)
}

func (s *Store) get(ctx context.Context, key string, fields []string) (storage.Record, error) {
	r := make(storage.Record, len(fields))
	if len(fields) == 0 {
		return r, nil
	}
	vals, err := s.rdb.HMGet(ctx, key, fields...).Result()
	if err != nil {
		return nil, err
	}
	for i, f := range fields {
		if vals[i] == nil {
			r[f] = nil
			continue
		}
		js, is := vals[i].(string)
		if !is {
			return nil, fmt.Errorf("unexpected %T for field %q at %s", vals[i], f, key)
		}
		var v interface{}
		if err := json.Unmarshal([]byte(js), &v); err != nil {
			return nil, fmt.Errorf("bad value for field %q at %s: %w", f, key, err)
		}
		r[f] = v
	}
	return r, nil
}

func (s *Store) set(ctx context.Context, key string, diff storage.Record) error {
	if len(diff) == 0 {
		return nil
	}
	pairs := make([]interface{}, 0, 2*len(diff))
	for f, v := range diff {
		js, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("can't encode field %q for %s: %w", f, key, err)
		}
		pairs = append(pairs, f, string(js))
	}
	return s.rdb.HSet(ctx, key, pairs...).Err()
}
