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
	"testing"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.SeedUser(7, Record{"name": "queso", "authority": 3})

	r, err := m.GetUser(ctx, 7, []string{"name", "flavor"})
	if err != nil {
		t.Fatal(err)
	}
	if r["name"] != "queso" {
		t.Fatalf("name %v", r["name"])
	}
	// Requested but absent fields are present with nil values.
	if v, have := r["flavor"]; !have || v != nil {
		t.Fatalf("flavor %v (%v)", v, have)
	}
	// And only the requested fields come back.
	if _, have := r["authority"]; have {
		t.Fatal("authority leaked")
	}

	if err = m.SetUser(ctx, 7, Record{"flavor": "mild"}); err != nil {
		t.Fatal(err)
	}
	if err = m.SetGroup(ctx, 9, Record{"title": "kitchen"}); err != nil {
		t.Fatal(err)
	}

	if r, err = m.GetUser(ctx, 7, []string{"flavor"}); err != nil || r["flavor"] != "mild" {
		t.Fatalf("flavor %v, %v", r["flavor"], err)
	}
	if r, err = m.GetGroup(ctx, 9, []string{"title"}); err != nil || r["title"] != "kitchen" {
		t.Fatalf("title %v, %v", r["title"], err)
	}
}
