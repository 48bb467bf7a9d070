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

// Package js lets ECMAScript define bot behavior.
//
// A Script is a kernel plugin.  When installed, it runs once in a
// Goja runtime with a small registration API at _:
//
//	_.middleware(function (s, next) { ... })
//	_.on(event, function (s) { ... })
//	_.before(event, function (s) { ... })
//	_.command(decl, function (s, args, options) { ... })
//	_.log(x)
//	_.gensym()
//
// Handlers registered this way are later called back from Go.  A Goja
// runtime isn't safe for concurrent use, so every callback holds the
// script's lock.
//
// See https://github.com/dop251/goja.
package js

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io/ioutil"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/Comcast/patter/kernel"
	"github.com/Comcast/patter/scope"

	"github.com/dop251/goja"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned when a script's initial run is
	// interrupted.
	Interrupted = errors.New(InterruptedMessage)
)

// Script is one ECMAScript plugin.
type Script struct {
	// Name identifies the script (in errors and logs).
	Name string

	// Source is the script itself.
	Source string

	// Requires names libraries to load before Source.  Libraries
	// can require further libraries; see Requires (the function).
	Requires []string

	// Scope, if not empty, narrows the install context
	// ("group+1,2" and friends; see the scope package).
	Scope string

	// LibraryProvider resolves a required library name to its
	// source.  If nil, FileLibraryProvider(".") is used.
	LibraryProvider func(ctx context.Context, name string) (string, error)

	// Timeout bounds the script's initial run.  Zero means no
	// bound.
	Timeout time.Duration

	mu sync.Mutex
	rt *goja.Runtime
}

// FileLibraryProvider resolves "file://NAME" links relative to dir.
func FileLibraryProvider(dir string) func(context.Context, string) (string, error) {
	return func(ctx context.Context, name string) (string, error) {
		parts := strings.SplitN(name, "://", 2)
		if 2 != len(parts) {
			return "", fmt.Errorf("bad link '%s'", name)
		}
		switch parts[0] {
		case "file":
			bs, err := ioutil.ReadFile(dir + "/" + parts[1])
			if err != nil {
				return "", err
			}
			return string(bs), nil
		default:
			return "", fmt.Errorf("unknown protocol '%s'", parts[0])
		}
	}
}

// MapLibraryProvider serves libraries from a map (handy for tests).
func MapLibraryProvider(srcs map[string]string) func(context.Context, string) (string, error) {
	return func(ctx context.Context, name string) (string, error) {
		src, have := srcs[name]
		if !have {
			return "", fmt.Errorf("undefined library '%s'", name)
		}
		return src, nil
	}
}

func (s *Script) provide(ctx context.Context, name string) (string, error) {
	if s.LibraryProvider != nil {
		return s.LibraryProvider(ctx, name)
	}
	return FileLibraryProvider(".")(ctx, name)
}

// collectLibraries resolves the named libraries and, recursively,
// their requires() declarations.  The result is in dependency order:
// a library's dependencies precede it.  The seen set keeps a
// dependency cycle from looping forever; a name is fetched at most
// once.
func (s *Script) collectLibraries(ctx context.Context, names []string, seen map[string]bool, acc *[]string) error {
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		src, err := s.provide(ctx, name)
		if err != nil {
			return fmt.Errorf("script %s: library %s: %w", s.Name, name, err)
		}
		deps, err := Requires(src)
		if err != nil {
			return fmt.Errorf("script %s: library %s: %w", s.Name, name, err)
		}
		if err = s.collectLibraries(ctx, deps, seen, acc); err != nil {
			return err
		}
		*acc = append(*acc, src)
	}
	return nil
}

// Apply installs the script: narrow the context per Scope, build the
// runtime, and run the source once so it can register handlers.
func (s *Script) Apply(c *kernel.Context) error {
	if s.Scope != "" {
		sc, err := scope.Parse(s.Scope)
		if err != nil {
			return fmt.Errorf("script %s: %w", s.Name, err)
		}
		c = c.Narrow(sc)
	}

	ctx := context.Background()
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	seen := make(map[string]bool, len(s.Requires))
	libs := make([]string, 0, len(s.Requires))
	if err := s.collectLibraries(ctx, s.Requires, seen, &libs); err != nil {
		return err
	}

	code := strings.Join(libs, "\n") + "\n" + s.Source

	p, err := goja.Compile(s.Name, code, true)
	if err != nil {
		return fmt.Errorf("script %s: %w", s.Name, err)
	}

	s.rt = goja.New()
	s.rt.Set("_", s.env(c))
	// require() is a declaration.  The named sources are already
	// prepended, so at runtime it does nothing.
	s.rt.Set("require", func(name string) {})

	// Interrupt the initial run if ctx gives up first.  The
	// runtime lives on for handler callbacks, so a stray
	// interrupt must not linger.
	done := make(chan bool)
	go func() {
		select {
		case <-ctx.Done():
			s.rt.Interrupt(InterruptedMessage)
		case <-done:
		}
	}()

	s.mu.Lock()
	_, err = s.rt.RunProgram(p)
	s.mu.Unlock()
	close(done)
	s.rt.ClearInterrupt()

	if err != nil {
		if _, is := err.(*goja.InterruptedError); is {
			return Interrupted
		}
		return fmt.Errorf("script %s: %w", s.Name, err)
	}
	return nil
}

// env builds the registration API the script sees at _.
func (s *Script) env(c *kernel.Context) map[string]interface{} {
	app := c.App()

	env := map[string]interface{}{}

	env["log"] = func(x interface{}) interface{} {
		if v, is := x.(goja.Value); is {
			x = v.Export()
		}
		app.Logf("js %s: %v", s.Name, x)
		return x
	}

	env["gensym"] = func() interface{} {
		return gensym(32)
	}

	env["middleware"] = func(f goja.Value) {
		fn, is := goja.AssertFunction(f)
		if !is {
			protest(s.rt, "middleware wants a function")
		}
		c.Middleware(func(ctx context.Context, sn *kernel.Session, next kernel.NextFunc) (string, error) {
			return s.callString(fn, s.sessionValue(sn), s.nextValue(next))
		})
	}

	env["on"] = func(event string, f goja.Value) {
		fn, is := goja.AssertFunction(f)
		if !is {
			protest(s.rt, "on wants a function")
		}
		c.On(event, func(ctx context.Context, sn *kernel.Session) (interface{}, error) {
			return s.call(fn, s.sessionValue(sn))
		})
	}

	env["before"] = func(event string, f goja.Value) {
		fn, is := goja.AssertFunction(f)
		if !is {
			protest(s.rt, "before wants a function")
		}
		c.Before(event, func(ctx context.Context, sn *kernel.Session) (interface{}, error) {
			return s.call(fn, s.sessionValue(sn))
		})
	}

	env["command"] = func(decl string, f goja.Value) {
		fn, is := goja.AssertFunction(f)
		if !is {
			protest(s.rt, "command wants a function")
		}
		cmd, err := c.Command(decl)
		if err != nil {
			protest(s.rt, err.Error())
		}
		cmd.Action(func(ctx context.Context, sn *kernel.Session, av *kernel.Argv) (string, error) {
			args := av.Args
			if args == nil {
				args = []string{}
			}
			opts := av.Options
			if opts == nil {
				opts = map[string]interface{}{}
			}
			return s.callString(fn, s.sessionValue(sn), args, opts)
		})
	}

	return env
}

// sessionValue is what handlers see for a session: plain fields plus
// entity accessors.
func (s *Script) sessionValue(sn *kernel.Session) map[string]interface{} {
	m := map[string]interface{}{
		"id":          sn.ID,
		"dimension":   int64(sn.Dimension),
		"dimensionId": sn.DimensionID,
		"sender":      sn.SenderID,
		"anonymous":   sn.Anonymous,
		"text":        sn.RawText,
	}
	if sn.User != nil {
		m["userGet"] = func(field string) interface{} {
			return sn.User.Get(field)
		}
		m["userSet"] = func(field string, v interface{}) {
			if vv, is := v.(goja.Value); is {
				v = vv.Export()
			}
			sn.User.Set(field, v)
		}
	}
	if sn.Group != nil {
		m["groupGet"] = func(field string) interface{} {
			return sn.Group.Get(field)
		}
		m["groupSet"] = func(field string, v interface{}) {
			if vv, is := v.(goja.Value); is {
				v = vv.Export()
			}
			sn.Group.Set(field, v)
		}
	}
	return m
}

func (s *Script) nextValue(next kernel.NextFunc) func() interface{} {
	return func() interface{} {
		result, err := next()
		if err != nil {
			protest(s.rt, err.Error())
		}
		return result
	}
}

// call invokes a script handler under the script's lock.
func (s *Script) call(fn goja.Callable, args ...interface{}) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vs := make([]goja.Value, len(args))
	for i, a := range args {
		vs[i] = s.rt.ToValue(a)
	}
	v, err := fn(goja.Undefined(), vs...)
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", s.Name, err)
	}
	return v.Export(), nil
}

func (s *Script) callString(fn goja.Callable, args ...interface{}) (string, error) {
	x, err := s.call(fn, args...)
	if err != nil {
		return "", err
	}
	switch vv := x.(type) {
	case nil:
		return "", nil
	case string:
		return vv, nil
	default:
		return fmt.Sprintf("%v", vv), nil
	}
}

func protest(o *goja.Runtime, x interface{}) {
	panic(o.ToValue(x))
}

var gensymChars = "abcdefghijklmnopqrstuvwxyz0123456789"

func gensym(n int) string {
	bs := make([]byte, n)
	max := big.NewInt(int64(len(gensymChars)))
	for i := range bs {
		j, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		bs[i] = gensymChars[j.Int64()]
	}
	return string(bs)
}
