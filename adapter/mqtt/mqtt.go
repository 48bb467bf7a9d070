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

// Package mqtt couples an app to an MQTT broker: inbound frames
// arrive on subscribed topics, replies go out on a publish topic.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Comcast/patter/adapter"
	"github.com/Comcast/patter/kernel"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Coupling is an adapter.Coupling over an MQTT client.
type Coupling struct {
	// Client is the Paho client.  NewCoupling builds one from
	// options, installing the inbound handler.
	Client paho.Client

	// SubTopics is a comma-separated list of subscription topics,
	// each optionally suffixed with ":QOS".
	SubTopics string

	// PubTopic is where replies are published.
	PubTopic string

	// Quiesce is the disconnect quiescence in milliseconds.
	Quiesce uint

	app    *kernel.App
	ctx    context.Context
	cancel context.CancelFunc
}

// NewCoupling builds a Coupling over the given client options.  The
// options' publish handler is replaced with this Coupling's inbound
// handler.
func NewCoupling(app *kernel.App, opts *paho.ClientOptions, subTopics, pubTopic string, quiesce uint) *Coupling {
	c := &Coupling{
		SubTopics: subTopics,
		PubTopic:  pubTopic,
		Quiesce:   quiesce,
		app:       app,
	}
	opts.SetDefaultPublishHandler(func(client paho.Client, msg paho.Message) {
		c.inHandler(msg)
	})
	c.Client = paho.NewClient(opts)
	return c
}

// inHandler handles messages sent to us from the broker due to our
// subscriptions.
func (c *Coupling) inHandler(msg paho.Message) {
	c.app.Logf("mqtt incoming: %s %s", msg.Topic(), msg.Payload())

	var f adapter.Frame
	if err := json.Unmarshal(msg.Payload(), &f); err != nil {
		c.app.Logf("mqtt bad frame on %s: %s", msg.Topic(), err)
		return
	}

	adapter.DispatchFrame(c.ctx, c.app, f, c.publish)
}

func (c *Coupling) publish(f adapter.Frame) error {
	js, err := json.Marshal(&f)
	if err != nil {
		return err
	}
	topic, qos := parseTopic(c.PubTopic)
	token := c.Client.Publish(topic, qos, false, js)
	token.Wait()
	return token.Error()
}

// Start connects to the broker and subscribes.
func (c *Coupling) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)

	c.app.Logf("mqtt connecting")
	if token := c.Client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}

	for _, topic := range strings.Split(c.SubTopics, ",") {
		topic, qos := parseTopic(topic)
		if topic == "" {
			continue
		}
		c.app.Logf("mqtt subscribing to %s (%d)", topic, qos)
		if t := c.Client.Subscribe(topic, qos, nil); t.Wait() && t.Error() != nil {
			return t.Error()
		}
	}

	return nil
}

// Stop disconnects from the broker.
func (c *Coupling) Stop(ctx context.Context) error {
	c.app.Logf("mqtt disconnecting")
	if c.cancel != nil {
		c.cancel()
	}
	c.Client.Disconnect(c.Quiesce)
	return nil
}

// parseTopic can extract QoS from a topic name of the form TOPIC:QOS.
func parseTopic(s string) (string, byte) {
	name, qs, found := strings.Cut(s, ":")
	if !found {
		return s, 0
	}
	var qos byte
	if _, err := fmt.Sscanf(qs, "%d", &qos); err != nil {
		return s, 0
	}
	return name, qos
}
