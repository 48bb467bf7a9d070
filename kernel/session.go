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

// Session is one in-flight inbound event.
//
// A Session is created by a platform adapter (or synthesized by a
// plugin) and handed to App.Dispatch.  Hooks and commands see the
// same Session value throughout the event's processing.
type Session struct {
	// ID identifies this event.  Dispatch assigns a UUID if the
	// adapter didn't.
	ID string `json:"id,omitempty"`

	// Dimension is the conversation kind, or scope.NoDimension
	// for events that aren't tied to any conversation.
	Dimension scope.Dimension `json:"dimension"`

	// DimensionID is the conversation id within Dimension.
	DimensionID int64 `json:"dimensionId,omitempty"`

	// SenderID identifies the sending user.
	SenderID int64 `json:"sender,omitempty"`

	// Anonymous marks senders with no persistent identity.  Their
	// observed user records are synthesized, never cached, and
	// never flushed.
	Anonymous bool `json:"anonymous,omitempty"`

	// RawText is the unparsed message text.
	RawText string `json:"text,omitempty"`

	// Argv is the parsed command invocation, if any.  Dispatch
	// fills this in from RawText when the adapter didn't.
	Argv *Argv `json:"-"`

	// User is the observed record for the sender, bound once per
	// event.
	User *Observed `json:"-"`

	// Group is the observed record for the conversation's group,
	// bound once per event for group sessions.
	Group *Observed `json:"-"`

	// Send, if not nil, delivers a reply to wherever the event
	// came from.
	Send func(text string) error `json:"-"`

	app *App
}

// App returns the application processing this session, if any.
func (s *Session) App() *App {
	return s.app
}

// SameIdentity reports whether two sessions come from the same
// conversation and sender.  Once-middleware uses this to skip
// unrelated events.
func (s *Session) SameIdentity(o *Session) bool {
	if s == nil || o == nil {
		return false
	}
	return s.Dimension == o.Dimension &&
		s.DimensionID == o.DimensionID &&
		s.SenderID == o.SenderID
}
