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

package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Comcast/patter/adapter"
	"github.com/Comcast/patter/kernel"
	"github.com/Comcast/patter/storage"

	ws "github.com/gorilla/websocket"
)

func TestRoundTrip(t *testing.T) {
	var upgrader ws.Upgrader

	heard := make(chan adapter.Frame, 1)

	// A fake platform: send one event, expect one reply.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Error(err)
			return
		}
		defer conn.Close()

		out := adapter.Frame{
			ID:          "e1",
			Dimension:   "group",
			DimensionID: 9,
			Sender:      7,
			Text:        "ping",
		}
		if err := conn.WriteJSON(&out); err != nil {
			t.Error(err)
			return
		}

		var in adapter.Frame
		if err := conn.ReadJSON(&in); err != nil {
			t.Error(err)
			return
		}
		heard <- in
	}))
	defer srv.Close()

	app := kernel.New(kernel.Config{}, storage.NewMemory())
	app.Middleware(func(ctx context.Context, s *kernel.Session, next kernel.NextFunc) (string, error) {
		if s.RawText == "ping" {
			return "pong", nil
		}
		return next()
	})

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := NewClient(app, url)
	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer c.Stop(context.Background())

	select {
	case f := <-heard:
		if f.Text != "pong" || f.Dimension != "group" || f.DimensionID != 9 {
			t.Fatalf("%#v", f)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reply")
	}
}

func TestStartBadURL(t *testing.T) {
	app := kernel.New(kernel.Config{}, storage.NewMemory())
	c := NewClient(app, "ws://127.0.0.1:1/nope")
	if err := c.Start(context.Background()); err == nil {
		c.Stop(context.Background())
		t.Fatal("expected dial error")
	}
}
