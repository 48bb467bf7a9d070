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

package redis

import (
	"context"
	"testing"

	"github.com/Comcast/patter/storage"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
	})
	return NewFromClient(client, "patter-test"), mr
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := testStore(t)

	require.NoError(t, s.SetUser(ctx, 7, storage.Record{"name": "queso", "authority": 2}))

	r, err := s.GetUser(ctx, 7, []string{"name", "authority", "missing"})
	require.NoError(t, err)
	assert.Equal(t, "queso", r["name"])
	assert.Equal(t, float64(2), r["authority"])

	v, have := r["missing"]
	assert.True(t, have, "requested fields must be present")
	assert.Nil(t, v)
}

func TestFieldGranularity(t *testing.T) {
	ctx := context.Background()
	s, mr := testStore(t)

	require.NoError(t, s.SetUser(ctx, 7, storage.Record{"name": "queso"}))
	require.NoError(t, s.SetUser(ctx, 7, storage.Record{"flavor": "mild"}))

	// Both fields live in one hash.
	keys, err := mr.HKeys("patter-test:user:7")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"name", "flavor"}, keys)

	r, err := s.GetUser(ctx, 7, []string{"flavor"})
	require.NoError(t, err)
	assert.Equal(t, storage.Record{"flavor": "mild"}, r)
}

func TestGroupsSeparateFromUsers(t *testing.T) {
	ctx := context.Background()
	s, _ := testStore(t)

	require.NoError(t, s.SetUser(ctx, 9, storage.Record{"name": "user nine"}))
	require.NoError(t, s.SetGroup(ctx, 9, storage.Record{"title": "group nine"}))

	u, err := s.GetUser(ctx, 9, []string{"name", "title"})
	require.NoError(t, err)
	assert.Equal(t, "user nine", u["name"])
	assert.Nil(t, u["title"])

	g, err := s.GetGroup(ctx, 9, []string{"title"})
	require.NoError(t, err)
	assert.Equal(t, "group nine", g["title"])
}

func TestEmptyRequest(t *testing.T) {
	s, _ := testStore(t)
	r, err := s.GetUser(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Empty(t, r)
}
