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

// Package kernel is the dispatch core of a chat bot: a root App owns
// hook and command registries plus entity caches, Contexts restrict
// where handlers fire, and Dispatch routes each inbound Session
// through field collection, the middleware chain, command execution,
// and the final write-back of observed mutations.
package kernel

import (
	"context"
	"log"
	"time"

	"github.com/Comcast/patter/scope"
	"github.com/Comcast/patter/storage"

	"github.com/google/uuid"
)

// Config provides basic App parameters.
type Config struct {
	// UserCacheTimeout bounds the age of a cached user record.
	UserCacheTimeout time.Duration `json:"userCacheTimeout,omitempty" yaml:"userCacheTimeout,omitempty"`

	// GroupCacheTimeout bounds the age of a cached group record.
	GroupCacheTimeout time.Duration `json:"groupCacheTimeout,omitempty" yaml:"groupCacheTimeout,omitempty"`

	// DefaultAuthority is the authority synthesized for anonymous
	// senders (unless AuthorityResolver is set).
	DefaultAuthority int64 `json:"defaultAuthority,omitempty" yaml:"defaultAuthority,omitempty"`

	// AuthorityResolver, if not nil, computes the default
	// authority per event.
	AuthorityResolver func(*Session) int64 `json:"-" yaml:"-"`

	// Prefix is the command prefix ("." or "!" or whatever).  An
	// empty prefix means any leading token can name a command.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// Verbose turns on logging.
	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// App is the root of one bot instance.
//
// All registries and caches hang off the App, never off package
// globals, so two Apps in one process don't see each other.  The App
// embeds its root Context, which matches every conversation.
type App struct {
	*Context

	conf  Config
	store storage.Provider

	registry // hooks, middlewares, commands, shortcuts, collectors

	users  *entityCache
	groups *entityCache
}

// New creates an App over the given storage provider.
func New(conf Config, store storage.Provider) *App {
	app := &App{
		conf:   conf,
		store:  store,
		users:  newEntityCache(conf.UserCacheTimeout),
		groups: newEntityCache(conf.GroupCacheTimeout),
	}
	app.registry.init()
	app.Context = &Context{
		app:   app,
		scope: scope.All(),
	}
	return app
}

// Conf returns the App's configuration.
func (a *App) Conf() Config {
	return a.conf
}

// Store returns the App's storage provider.
func (a *App) Store() storage.Provider {
	return a.store
}

// Logf logs when a.conf.Verbose.
func (a *App) Logf(format string, args ...interface{}) {
	if a.conf.Verbose {
		log.Printf(format, args...)
	}
}

func (a *App) resolveAuthority(s *Session) int64 {
	if a.conf.AuthorityResolver != nil {
		return a.conf.AuthorityResolver(s)
	}
	return a.conf.DefaultAuthority
}

// Dispatch processes one inbound event.
//
// The pipeline: parse RawText into an Argv (unless the adapter
// already did), bind observed user/group records with every collected
// field (sessions with no sender identity get no user binding), run
// the middleware chain (command execution is the terminal
// middleware), then flush observed mutations back to storage.  That
// flush -- at the end of the event, after the chain has unwound -- is
// the one write-back point; handlers never need to call Flush
// themselves.
//
// The result string, if not empty, is also delivered via s.Send.
func (a *App) Dispatch(ctx context.Context, s *Session) (string, error) {
	s.app = a
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	if s.Argv == nil && s.RawText != "" {
		s.Argv = a.ParseCommand(s.RawText)
	}

	var cmd *Command
	if s.Argv != nil {
		cmd = s.Argv.Command
	}

	// Synthetic events (cron ticks and the like) carry no sender;
	// don't fetch and cache a meaningless id-0 record for them.
	if s.SenderID != 0 || s.Anonymous {
		if _, err := a.ObserveUser(ctx, s, a.collectUserFields(s, cmd)...); err != nil {
			return "", err
		}
	}
	if s.Dimension == scope.Group {
		if _, err := a.ObserveGroup(ctx, s, a.collectGroupFields(s, cmd)...); err != nil {
			return "", err
		}
	}

	result, err := a.runMiddlewares(ctx, s)

	a.flush(ctx, s)

	if result != "" && s.Send != nil {
		if serr := s.Send(result); serr != nil {
			a.Logf("App.Dispatch send error: %s", serr)
		}
	}

	return result, err
}

// flush writes pending observed mutations back to storage.  Flush
// errors are logged, not returned: the event was already processed.
func (a *App) flush(ctx context.Context, s *Session) {
	if s.User != nil {
		if err := s.User.Flush(ctx); err != nil {
			a.Logf("App.Dispatch user flush error for %d: %s", s.SenderID, err)
		}
	}
	if s.Group != nil {
		if err := s.Group.Flush(ctx); err != nil {
			a.Logf("App.Dispatch group flush error for %d: %s", s.DimensionID, err)
		}
	}
}
