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

// Package adapter couples an application to message transports.
//
// An adapter speaks JSON frames on some transport, turns inbound
// frames into sessions, and writes replies back out.  The kernel
// never sees the transport; a platform plugs in by implementing
// Coupling.
package adapter

import (
	"context"
	"fmt"

	"github.com/Comcast/patter/kernel"
	"github.com/Comcast/patter/scope"
)

// Coupling connects an App to one transport.
//
// For example, an implementation could couple the app to an MQTT
// broker or a websocket service.
type Coupling interface {
	// Start connects and begins forwarding events.
	Start(context.Context) error

	// Stop shuts down the Coupling.
	Stop(context.Context) error
}

// Frame is the JSON wire shape of one event.
type Frame struct {
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Dimension is "direct", "group", "discuss", or empty for
	// events not tied to a conversation.
	Dimension   string `json:"dimension,omitempty" yaml:"dimension,omitempty"`
	DimensionID int64  `json:"dimensionId,omitempty" yaml:"dimensionId,omitempty"`

	Sender    int64 `json:"sender,omitempty" yaml:"sender,omitempty"`
	Anonymous bool  `json:"anonymous,omitempty" yaml:"anonymous,omitempty"`

	Text string `json:"text" yaml:"text"`
}

// Session converts a frame to a session (without a reply sink; the
// transport wires that).
func (f Frame) Session() (*kernel.Session, error) {
	d := scope.NoDimension
	if f.Dimension != "" {
		var ok bool
		if d, ok = scope.ParseDimension(f.Dimension); !ok {
			return nil, fmt.Errorf("bad dimension %q", f.Dimension)
		}
	}
	return &kernel.Session{
		ID:          f.ID,
		Dimension:   d,
		DimensionID: f.DimensionID,
		SenderID:    f.Sender,
		Anonymous:   f.Anonymous,
		RawText:     f.Text,
	}, nil
}

// Reply makes the outbound frame answering the given session.
func Reply(s *kernel.Session, text string) Frame {
	f := Frame{
		ID:          s.ID,
		DimensionID: s.DimensionID,
		Sender:      s.SenderID,
		Text:        text,
	}
	if s.Dimension != scope.NoDimension {
		f.Dimension = s.Dimension.String()
	}
	return f
}

// DispatchFrame runs one inbound frame through the app, delivering
// any replies via send.  Dispatch errors are logged, not returned:
// one bad event shouldn't stop a transport's read loop.
func DispatchFrame(ctx context.Context, app *kernel.App, f Frame, send func(Frame) error) {
	s, err := f.Session()
	if err != nil {
		app.Logf("adapter dropping frame %s: %s", f.ID, err)
		return
	}
	s.Send = func(text string) error {
		return send(Reply(s, text))
	}
	if _, err := app.Dispatch(ctx, s); err != nil {
		app.Logf("adapter dispatch error for %s: %s", s.ID, err)
	}
}
