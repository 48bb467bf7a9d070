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
)

// Handler processes a session for one event name.  A "truthy" result
// (non-nil, non-empty string, non-false) short-circuits Serialize and
// Bail dispatch.
type Handler func(ctx context.Context, s *Session) (interface{}, error)

type hookEntry struct {
	ctx     *Context
	handler Handler
}

type fieldCollector struct {
	ctx    *Context
	fields []string
}

// registry is the App's shared mutable state: hooks, middlewares,
// commands, shortcuts, and field collectors.  One mutex guards it
// all; registration is expected to happen during setup, serialized
// with respect to dispatch by convention.
type registry struct {
	mu sync.Mutex

	hooks       map[string][]*hookEntry
	middlewares []*mwEntry

	commands    map[string]*Command // names and aliases
	commandList []*Command
	shortcuts   map[string]*Command

	userCollectors  []*fieldCollector
	groupCollectors []*fieldCollector
}

func (r *registry) init() {
	r.hooks = make(map[string][]*hookEntry)
	r.commands = make(map[string]*Command)
	r.shortcuts = make(map[string]*Command)
}

// On registers a handler that fires after existing handlers for the
// event.  The returned function unregisters it.
func (c *Context) On(event string, h Handler) func() {
	return c.app.addHook(event, c, h, false)
}

// Before registers a handler that fires before existing handlers for
// the event.
func (c *Context) Before(event string, h Handler) func() {
	return c.app.addHook(event, c, h, true)
}

// Once registers a handler that unregisters itself when it first
// fires.
func (c *Context) Once(event string, h Handler) func() {
	var dispose func()
	wrapped := func(ctx context.Context, s *Session) (interface{}, error) {
		if dispose != nil {
			dispose()
		}
		return h(ctx, s)
	}
	dispose = c.On(event, wrapped)
	return dispose
}

func (a *App) addHook(event string, c *Context, h Handler, front bool) func() {
	e := &hookEntry{ctx: c, handler: h}
	a.mu.Lock()
	if front {
		a.hooks[event] = append([]*hookEntry{e}, a.hooks[event]...)
	} else {
		a.hooks[event] = append(a.hooks[event], e)
	}
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.removeHook(event, e)
		})
	}
}

func (a *App) removeHook(event string, e *hookEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	hooks := a.hooks[event]
	for i, have := range hooks {
		if have == e {
			a.hooks[event] = append(hooks[:i:i], hooks[i+1:]...)
			return
		}
	}
}

// hooksFor snapshots the hooks for an event, filtered by each hook's
// own context against the session.
func (a *App) hooksFor(event string, s *Session) []*hookEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc := make([]*hookEntry, 0, len(a.hooks[event]))
	for _, e := range a.hooks[event] {
		if e.ctx.Match(s) {
			acc = append(acc, e)
		}
	}
	return acc
}

// Emit is fan-out dispatch: every surviving handler runs
// concurrently, and Emit returns only once all have settled.  If any
// handler fails, Emit fails with the first error observed -- but
// handlers that were already running are not cancelled.
//
// Handlers race; Emit promises no ordering between them.
func (a *App) Emit(ctx context.Context, event string, s *Session) error {
	hooks := a.hooksFor(event, s)
	if len(hooks) == 0 {
		return nil
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		first error
	)
	for _, e := range hooks {
		wg.Add(1)
		go func(e *hookEntry) {
			defer wg.Done()
			if _, err := e.handler(ctx, s); err != nil {
				mu.Lock()
				if first == nil {
					first = err
				}
				mu.Unlock()
			}
		}(e)
	}
	wg.Wait()
	return first
}

// Serialize invokes surviving handlers in registration order (Before
// hooks first), awaiting each, and returns the first truthy result.
// A handler error stops the walk.
func (a *App) Serialize(ctx context.Context, event string, s *Session) (interface{}, error) {
	for _, e := range a.hooksFor(event, s) {
		v, err := e.handler(ctx, s)
		if err != nil {
			return nil, err
		}
		if truthy(v) {
			return v, nil
		}
	}
	return nil, nil
}

// Bail is Serialize for synchronous handlers: same ordering and
// short-circuit, but handlers must not suspend, so the whole walk
// completes without yielding.
func (a *App) Bail(event string, s *Session) (interface{}, error) {
	for _, e := range a.hooksFor(event, s) {
		v, err := e.handler(context.Background(), s)
		if err != nil {
			return nil, err
		}
		if truthy(v) {
			return v, nil
		}
	}
	return nil, nil
}

func truthy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	default:
		return true
	}
}

// CollectUserFields declares user record fields that should be
// fetched before any matching session's handlers run.
func (c *Context) CollectUserFields(fields ...string) func() {
	return c.app.addCollector(&c.app.userCollectors, c, fields)
}

// CollectGroupFields declares group record fields that should be
// fetched before any matching session's handlers run.
func (c *Context) CollectGroupFields(fields ...string) func() {
	return c.app.addCollector(&c.app.groupCollectors, c, fields)
}

func (a *App) addCollector(list *[]*fieldCollector, c *Context, fields []string) func() {
	e := &fieldCollector{ctx: c, fields: fields}
	a.mu.Lock()
	*list = append(*list, e)
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			for i, have := range *list {
				if have == e {
					*list = append((*list)[:i:i], (*list)[i+1:]...)
					return
				}
			}
		})
	}
}

// collectUserFields unions the matched command's declared user fields
// with every matching collector's.  "authority" is always included:
// option and command gating reads it.
func (a *App) collectUserFields(s *Session, cmd *Command) []string {
	return a.collectFields(a.userCollectors, s, cmd, func(cmd *Command) []string {
		return cmd.userFields
	})
}

func (a *App) collectGroupFields(s *Session, cmd *Command) []string {
	return a.collectFields(a.groupCollectors, s, cmd, func(cmd *Command) []string {
		return cmd.groupFields
	})
}

func (a *App) collectFields(collectors []*fieldCollector, s *Session, cmd *Command, get func(*Command) []string) []string {
	set := map[string]bool{"authority": true}
	a.mu.Lock()
	for _, e := range collectors {
		if e.ctx.Match(s) {
			for _, f := range e.fields {
				set[f] = true
			}
		}
	}
	a.mu.Unlock()
	if cmd != nil {
		for _, f := range get(cmd) {
			set[f] = true
		}
	}
	acc := make([]string, 0, len(set))
	for f := range set {
		acc = append(acc, f)
	}
	return acc
}
