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
	"github.com/Comcast/patter/scope"
)

// Context is a named, matchable scope restriction.  Every hook and
// command is registered through some Context, and only fires for
// sessions the Context matches.
//
// A Context is an explicit composition: an immutable scope plus a
// reference to the parent it was derived from.  Installing a plugin
// constructs a child Context, so everything a plugin registers is
// automatically scoped no broader than the installer.
type Context struct {
	app    *App
	scope  scope.Scope
	parent *Context
}

// App returns the root application.
func (c *Context) App() *App {
	return c.app
}

// Scope returns the context's (immutable) scope.
func (c *Context) Scope() scope.Scope {
	return c.scope
}

// ID is the canonical string form of the scope.  Two contexts are
// structurally equal iff their IDs are equal.
func (c *Context) ID() string {
	return c.scope.String()
}

func (c *Context) derive(s scope.Scope) *Context {
	return &Context{
		app:    c.app,
		scope:  s,
		parent: c,
	}
}

// Match reports whether the session's conversation is in scope.
// Sessions with no dimension match every context.
func (c *Context) Match(s *Session) bool {
	if s == nil {
		return true
	}
	return c.scope.Match(s.Dimension, s.DimensionID)
}

// Contain reports whether every conversation o matches is also
// matched by c.
func (c *Context) Contain(o *Context) bool {
	return c.scope.Contain(o.scope)
}

// Plus widens the context with o's scope.
func (c *Context) Plus(o *Context) *Context {
	return c.derive(c.scope.Plus(o.scope))
}

// Minus removes o's scope from the context.
func (c *Context) Minus(o *Context) *Context {
	return c.derive(c.scope.Minus(o.scope))
}

// Intersect narrows the context to the overlap with o.
func (c *Context) Intersect(o *Context) *Context {
	return c.derive(c.scope.Intersect(o.scope))
}

// Inverse matches exactly the conversations the context doesn't.
func (c *Context) Inverse() *Context {
	return c.derive(c.scope.Inverse())
}

// Narrow intersects the context with an explicit scope.
func (c *Context) Narrow(s scope.Scope) *Context {
	return c.derive(c.scope.Intersect(s))
}

// Direct narrows to the given direct-message conversations (all of
// them when no ids are given).
func (c *Context) Direct(ids ...int64) *Context {
	return c.Narrow(scope.Only(scope.Direct, ids...))
}

// Group narrows to the given group conversations.
func (c *Context) Group(ids ...int64) *Context {
	return c.Narrow(scope.Only(scope.Group, ids...))
}

// Discuss narrows to the given discussion conversations.
func (c *Context) Discuss(ids ...int64) *Context {
	return c.Narrow(scope.Only(scope.Discuss, ids...))
}

// Plugin is anything installable on a Context.
type Plugin interface {
	Apply(*Context) error
}

// PluginFunc adapts a plain function to Plugin.
type PluginFunc func(*Context) error

func (f PluginFunc) Apply(c *Context) error {
	return f(c)
}

// Install applies the plugin to a fresh child context.  The child
// inherits the installing scope, and the plugin may narrow it further
// before registering anything.  A setup error aborts the
// installation; nothing is retried.
func (c *Context) Install(p Plugin) error {
	if p == nil {
		return ErrInvalidPlugin
	}
	return p.Apply(c.derive(c.scope))
}
