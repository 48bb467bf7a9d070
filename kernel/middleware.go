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

// NextFunc is the continuation a middleware (or command action) calls
// to defer to the rest of the chain.
type NextFunc func() (string, error)

// MiddlewareFunc sees every matching session.  Returning a non-empty
// string ends the chain with that result; calling next defers.
type MiddlewareFunc func(ctx context.Context, s *Session, next NextFunc) (string, error)

type mwEntry struct {
	ctx *Context
	fn  MiddlewareFunc
}

// Middleware appends to the chain (fires after existing middleware).
// The returned function unregisters it.
func (c *Context) Middleware(fn MiddlewareFunc) func() {
	return c.app.addMiddleware(c, fn, false)
}

// PrependMiddleware inserts at the front of the chain.
func (c *Context) PrependMiddleware(fn MiddlewareFunc) func() {
	return c.app.addMiddleware(c, fn, true)
}

// OnceMiddleware registers a middleware that fires for at most one
// session sharing the origin session's identity (same conversation
// and sender).  Sessions with a different identity are passed
// through untouched.
//
// This is how a command can await a follow-up message from the same
// user: register a once-middleware from inside a handler, and the
// next matching message is yours.
func (c *Context) OnceMiddleware(fn MiddlewareFunc, origin *Session) func() {
	var dispose func()
	wrapped := func(ctx context.Context, s *Session, next NextFunc) (string, error) {
		if !s.SameIdentity(origin) {
			return next()
		}
		if dispose != nil {
			dispose()
		}
		return fn(ctx, s, next)
	}
	dispose = c.PrependMiddleware(wrapped)
	return dispose
}

func (a *App) addMiddleware(c *Context, fn MiddlewareFunc, front bool) func() {
	e := &mwEntry{ctx: c, fn: fn}
	a.mu.Lock()
	if front {
		a.middlewares = append([]*mwEntry{e}, a.middlewares...)
	} else {
		a.middlewares = append(a.middlewares, e)
	}
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			for i, have := range a.middlewares {
				if have == e {
					a.middlewares = append(a.middlewares[:i:i], a.middlewares[i+1:]...)
					return
				}
			}
		})
	}
}

// runMiddlewares walks the matching middleware in order, each getting
// a continuation for the rest.  The terminal continuation executes
// the session's matched command, if any.
func (a *App) runMiddlewares(ctx context.Context, s *Session) (string, error) {
	a.mu.Lock()
	ms := make([]*mwEntry, 0, len(a.middlewares))
	for _, e := range a.middlewares {
		if e.ctx.Match(s) {
			ms = append(ms, e)
		}
	}
	a.mu.Unlock()

	var run func(i int) (string, error)
	run = func(i int) (string, error) {
		if len(ms) <= i {
			return a.executeSession(ctx, s)
		}
		return ms[i].fn(ctx, s, func() (string, error) {
			return run(i + 1)
		})
	}
	return run(0)
}

// executeSession is the terminal middleware: run the matched command,
// if there is one and its context matches the session.
func (a *App) executeSession(ctx context.Context, s *Session) (string, error) {
	av := s.Argv
	if av == nil || av.Command == nil {
		return "", nil
	}
	if !av.Command.Context().Match(s) {
		return "", nil
	}
	return av.Command.Execute(ctx, s, av, nil)
}
