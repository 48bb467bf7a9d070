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

// Package bolt is a storage.Provider backed by a bbolt file: one
// bucket per entity kind, one JSON record per id.
//
// Not glamorous or fast, but a single file with no server to run.
package bolt

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/Comcast/patter/storage"

	bolt "go.etcd.io/bbolt"
)

var (
	usersBucket  = []byte("users")
	groupsBucket = []byte("groups")
)

type Store struct {
	db *bolt.DB
}

// Open opens (creating if needed) the database file.
func Open(filename string) (*Store, error) {
	db, err := bolt.Open(filename, 0644, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{usersBucket, groupsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) GetUser(ctx context.Context, id int64, fields []string) (storage.Record, error) {
	return s.get(usersBucket, id, fields)
}

func (s *Store) SetUser(ctx context.Context, id int64, diff storage.Record) error {
	return s.set(usersBucket, id, diff)
}

func (s *Store) GetGroup(ctx context.Context, id int64, fields []string) (storage.Record, error) {
	return s.get(groupsBucket, id, fields)
}

func (s *Store) SetGroup(ctx context.Context, id int64, diff storage.Record) error {
	return s.set(groupsBucket, id, diff)
}

func key(id int64) []byte {
	return []byte(strconv.FormatInt(id, 10))
}

func (s *Store) get(bucket []byte, id int64, fields []string) (storage.Record, error) {
	var full storage.Record
	err := s.db.View(func(tx *bolt.Tx) error {
		bs := tx.Bucket(bucket).Get(key(id))
		if bs == nil {
			full = storage.Record{}
			return nil
		}
		return json.Unmarshal(bs, &full)
	})
	if err != nil {
		return nil, err
	}
	return full.Pick(fields), nil
}

// set merges the diff into the stored record in one transaction.
func (s *Store) set(bucket []byte, id int64, diff storage.Record) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		full := storage.Record{}
		if bs := b.Get(key(id)); bs != nil {
			if err := json.Unmarshal(bs, &full); err != nil {
				return err
			}
		}
		for k, v := range diff {
			full[k] = v
		}
		bs, err := json.Marshal(&full)
		if err != nil {
			return err
		}
		return b.Put(key(id), bs)
	})
}
