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
	"errors"
	"testing"

	"github.com/Comcast/patter/storage"
)

func TestCommandTree(t *testing.T) {
	app, _ := testApp(t)

	a, err := app.Command("a")
	if err != nil {
		t.Fatal(err)
	}
	ab, err := app.Command("a.b")
	if err != nil {
		t.Fatal(err)
	}
	if ab.Name() != "a.b" {
		t.Fatalf("name %q", ab.Name())
	}
	if ab.Parent() != a {
		t.Fatal("a.b's parent isn't a")
	}
	if kids := a.Children(); len(kids) != 1 || kids[0] != ab {
		t.Fatalf("children %v", kids)
	}

	// Root-relative segment.
	c, err := app.Command("a/c")
	if err != nil {
		t.Fatal(err)
	}
	if c.Name() != "c" || c.Parent() != a {
		t.Fatalf("got %q under %v", c.Name(), c.Parent())
	}

	// Redeclaring extends rather than recreating.
	again, err := app.Command("a.b")
	if err != nil {
		t.Fatal(err)
	}
	if again != ab {
		t.Fatal("a.b recreated")
	}
}

func TestCommandPathSplit(t *testing.T) {
	for _, c := range []struct {
		path string
		want []string
	}{
		{"a", []string{"a"}},
		{"a.b", []string{"a", ".b"}},
		{"a.b.c", []string{"a", ".b", ".c"}},
		{"a/c", []string{"a", "/c"}},
		{"a.b/c", []string{"a", ".b", "/c"}},
	} {
		got := splitPath(c.path)
		if len(got) != len(c.want) {
			t.Fatalf("splitPath(%q) = %v", c.path, got)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("splitPath(%q) = %v", c.path, got)
			}
		}
	}
}

func TestCommandSelfParent(t *testing.T) {
	app, _ := testApp(t)
	if _, err := app.Command("x"); err != nil {
		t.Fatal(err)
	}
	if _, err := app.Command("x/x"); !errors.Is(err, ErrInvalidSubcommand) {
		t.Fatalf("err = %v", err)
	}
}

func TestCommandConflictingParent(t *testing.T) {
	app, _ := testApp(t)
	for _, def := range []string{"p", "q", "p/kid"} {
		if _, err := app.Command(def); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := app.Command("q/kid"); !errors.Is(err, ErrInvalidSubcommand) {
		t.Fatalf("err = %v", err)
	}
}

func TestCommandContainment(t *testing.T) {
	app, _ := testApp(t)

	// "wide" lives only in group 3.
	if _, err := app.Group(3).Command("wide"); err != nil {
		t.Fatal(err)
	}
	// Adopting it under a parent that lives elsewhere must fail.
	if _, err := app.Group(4).Command("other"); err != nil {
		t.Fatal(err)
	}
	if _, err := app.Group(4).Command("other/wide"); !errors.Is(err, ErrInvalidContext) {
		t.Fatalf("err = %v", err)
	}

	// A subcommand declared from a disjoint context is unreachable.
	if _, err := app.Group(3).Command("narrow"); err != nil {
		t.Fatal(err)
	}
	if _, err := app.Group(5).Command("narrow.sub"); !errors.Is(err, ErrInvalidContext) {
		t.Fatalf("err = %v", err)
	}
}

func TestCommandChildContext(t *testing.T) {
	app, _ := testApp(t)

	p, err := app.Group(1, 2, 3).Command("parent")
	if err != nil {
		t.Fatal(err)
	}
	kid, err := app.Group(2, 3, 4).Command("parent.kid")
	if err != nil {
		t.Fatal(err)
	}
	// The child is anchored at the intersection.
	if got := kid.Context().ID(); got != "group+2,3" {
		t.Fatalf("child context %q", got)
	}
	if !p.Context().Contain(kid.Context()) {
		t.Fatal("parent doesn't contain child")
	}
}

func TestAlias(t *testing.T) {
	app, _ := testApp(t)

	e, err := app.Command("echo")
	if err != nil {
		t.Fatal(err)
	}
	if err = e.Alias("say"); err != nil {
		t.Fatal(err)
	}
	if app.GetCommand("say") != e {
		t.Fatal("alias not registered")
	}
	if err = e.Alias("say"); err != nil {
		t.Fatal("re-aliasing the same command should be fine")
	}

	other, err := app.Command("other")
	if err != nil {
		t.Fatal(err)
	}
	if err = other.Alias("say"); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("err = %v", err)
	}
}

func TestDisposeCommand(t *testing.T) {
	app, _ := testApp(t)

	p, _ := app.Command("p")
	if _, err := app.Command("p.kid"); err != nil {
		t.Fatal(err)
	}
	if err := p.Alias("pp"); err != nil {
		t.Fatal(err)
	}
	if err := p.Shortcut("do the thing"); err != nil {
		t.Fatal(err)
	}

	p.Dispose()

	for _, name := range []string{"p", "pp", "p.kid"} {
		if app.GetCommand(name) != nil {
			t.Fatalf("%q still registered", name)
		}
	}
	if len(app.Commands()) != 0 {
		t.Fatalf("command list %v", app.Commands())
	}
	if av := app.ParseCommand("do the thing"); av != nil {
		t.Fatal("shortcut survived disposal")
	}
}

func TestParseCommand(t *testing.T) {
	app, _ := testApp(t)

	e, err := app.Command("echo")
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Alias("say"); err != nil {
		t.Fatal(err)
	}

	av := app.ParseCommand("echo hello there --loud -x --volume=11")
	if av == nil || av.Command != e {
		t.Fatalf("parse gave %v", av)
	}
	if len(av.Args) != 2 || av.Args[0] != "hello" || av.Args[1] != "there" {
		t.Fatalf("args %v", av.Args)
	}
	if av.Options["loud"] != true || av.Options["x"] != true || av.Options["volume"] != "11" {
		t.Fatalf("options %v", av.Options)
	}

	if av = app.ParseCommand("say hi"); av == nil || av.Command != e {
		t.Fatal("alias didn't resolve")
	}
	if av = app.ParseCommand("nothing here"); av != nil {
		t.Fatal("matched a ghost")
	}
}

func TestParseCommandPrefix(t *testing.T) {
	app := New(Config{Prefix: "!"}, storage.NewMemory())

	if _, err := app.Command("echo"); err != nil {
		t.Fatal(err)
	}
	if av := app.ParseCommand("echo hi"); av != nil {
		t.Fatal("prefixless text matched")
	}
	if av := app.ParseCommand("!echo hi"); av == nil {
		t.Fatal("prefixed text didn't match")
	}
}
