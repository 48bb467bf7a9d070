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

package adapter

import (
	"context"
	"testing"

	"github.com/Comcast/patter/kernel"
	"github.com/Comcast/patter/scope"
	"github.com/Comcast/patter/storage"
)

func TestFrameSession(t *testing.T) {
	f := Frame{
		ID:          "f1",
		Dimension:   "group",
		DimensionID: 9,
		Sender:      7,
		Text:        "hi",
	}
	s, err := f.Session()
	if err != nil {
		t.Fatal(err)
	}
	if s.Dimension != scope.Group || s.DimensionID != 9 || s.SenderID != 7 || s.RawText != "hi" {
		t.Fatalf("%#v", s)
	}

	// Empty dimension means no conversation.
	s, err = Frame{Text: "x"}.Session()
	if err != nil {
		t.Fatal(err)
	}
	if s.Dimension != scope.NoDimension {
		t.Fatal(s.Dimension)
	}

	if _, err = (Frame{Dimension: "kitchen"}).Session(); err == nil {
		t.Fatal("expected bad-dimension error")
	}
}

func TestReply(t *testing.T) {
	s := &kernel.Session{
		ID:          "s1",
		Dimension:   scope.Direct,
		DimensionID: 7,
		SenderID:    7,
	}
	f := Reply(s, "hello")
	if f.Dimension != "direct" || f.Text != "hello" || f.ID != "s1" {
		t.Fatalf("%#v", f)
	}

	f = Reply(&kernel.Session{Dimension: scope.NoDimension}, "x")
	if f.Dimension != "" {
		t.Fatal(f.Dimension)
	}
}

func TestDispatchFrame(t *testing.T) {
	app := kernel.New(kernel.Config{}, storage.NewMemory())
	app.Middleware(func(ctx context.Context, s *kernel.Session, next kernel.NextFunc) (string, error) {
		return "heard " + s.RawText, nil
	})

	var sent []Frame
	send := func(f Frame) error {
		sent = append(sent, f)
		return nil
	}

	DispatchFrame(context.Background(), app, Frame{Dimension: "group", DimensionID: 9, Sender: 7, Text: "tacos"}, send)

	if len(sent) != 1 {
		t.Fatal(sent)
	}
	if sent[0].Text != "heard tacos" || sent[0].Dimension != "group" {
		t.Fatalf("%#v", sent[0])
	}

	// A bad frame is dropped, not sent.
	sent = nil
	DispatchFrame(context.Background(), app, Frame{Dimension: "kitchen", Text: "x"}, send)
	if len(sent) != 0 {
		t.Fatal(sent)
	}
}
