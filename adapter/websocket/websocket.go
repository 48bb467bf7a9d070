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

// Package websocket couples an app to a websocket service as a
// client: one frame per text message, both directions.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Comcast/patter/adapter"
	"github.com/Comcast/patter/kernel"

	ws "github.com/gorilla/websocket"
)

// Client is an adapter.Coupling that dials a websocket URL.
type Client struct {
	// URL is the ws:// or wss:// endpoint.
	URL string

	app    *kernel.App
	conn   *ws.Conn
	out    chan adapter.Frame
	cancel context.CancelFunc
}

// NewClient makes an unstarted Client.
func NewClient(app *kernel.App, url string) *Client {
	return &Client{
		URL: url,
		app: app,
		out: make(chan adapter.Frame, 10),
	}
}

// Start dials the endpoint and begins the read and write loops.
func (c *Client) Start(ctx context.Context) error {
	conn, _, err := ws.DefaultDialer.Dial(c.URL, nil)
	if err != nil {
		return fmt.Errorf("websocket dial %s: %w", c.URL, err)
	}
	c.conn = conn

	ctx, c.cancel = context.WithCancel(ctx)

	c.app.Logf("websocket client starting: %s", c.URL)

	go c.readLoop(ctx)
	go c.writeLoop(ctx)

	return nil
}

// Send queues an outbound frame.
func (c *Client) Send(f adapter.Frame) error {
	select {
	case c.out <- f:
		return nil
	default:
		return fmt.Errorf("websocket outbound queue full")
	}
}

// Stop closes the connection and terminates the loops.
func (c *Client) Stop(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) readLoop(ctx context.Context) {
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-ctx.Done():
			default:
				c.app.Logf("websocket read error: %s", err)
			}
			return
		}
		c.app.Logf("websocket heard %s", message)

		var f adapter.Frame
		if err = json.Unmarshal(message, &f); err != nil {
			c.app.Logf("websocket bad frame %s: %s", message, err)
			continue
		}

		adapter.DispatchFrame(ctx, c.app, f, c.Send)
	}
}

func (c *Client) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-c.out:
			if err := c.conn.WriteJSON(&f); err != nil {
				c.app.Logf("websocket write error: %s", err)
			}
		}
	}
}
