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

package testutil

import (
	"reflect"
	"testing"
)

func TestJS(t *testing.T) {
	got := JS(map[string]interface{}{"likes": "tacos"})
	if got != `{"likes":"tacos"}` {
		t.Fatal(got)
	}
}

func TestDwimjs(t *testing.T) {
	want := map[string]interface{}{"likes": "queso", "n": float64(2)}
	if got := Dwimjs(`{"likes":"queso","n":2}`); !reflect.DeepEqual(got, want) {
		t.Fatalf("%#v", got)
	}
	if got := Dwimjs([]byte(`"tacos"`)); got != "tacos" {
		t.Fatalf("%#v", got)
	}
	if got := Dwimjs(42); got != 42 {
		t.Fatalf("%#v", got)
	}
}

func TestCanonEqual(t *testing.T) {
	type dish struct {
		Name  string `json:"name"`
		Spice int    `json:"spice"`
	}
	x := dish{"queso", 1}
	y := map[string]interface{}{"name": "queso", "spice": float64(1)}
	if !CanonEqual(x, y) {
		t.Fatalf("%#v != %#v", Canon(x), y)
	}
	if CanonEqual(x, dish{"tacos", 1}) {
		t.Fatal("distinct dishes compared equal")
	}
}
