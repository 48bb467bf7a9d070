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

package cron

import (
	"context"
	"testing"
	"time"

	"github.com/Comcast/patter/kernel"
	"github.com/Comcast/patter/scope"
	"github.com/Comcast/patter/storage"
)

func TestFire(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := kernel.New(kernel.Config{}, storage.NewMemory())

	fired := make(chan *kernel.Session, 4)
	app.Middleware(func(ctx context.Context, s *kernel.Session, next kernel.NextFunc) (string, error) {
		fired <- s
		return next()
	})

	ts := NewTab()
	if err := app.Install(ts); err != nil {
		t.Fatal(err)
	}

	template := &kernel.Session{
		Dimension:   scope.Group,
		DimensionID: 9,
		SenderID:    7,
		RawText:     "tick",
	}

	// Every second.
	if err := ts.Add(ctx, "tick", "*/1 * * * * *", template); err != nil {
		t.Fatal(err)
	}

	select {
	case s := <-fired:
		if s.RawText != "tick" {
			t.Fatal(s.RawText)
		}
		if s.ID == "" {
			t.Fatal("no session id assigned")
		}
		if s == template {
			t.Fatal("template dispatched directly")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("job never fired")
	}

	if err := ts.Cancel("tick"); err != nil {
		t.Fatal(err)
	}
	if ids := ts.Jobs(); len(ids) != 0 {
		t.Fatal(ids)
	}
}

func TestAddErrors(t *testing.T) {
	ctx := context.Background()
	ts := NewTab()

	template := &kernel.Session{RawText: "tick", Dimension: scope.NoDimension}

	// Not yet installed.
	if err := ts.Add(ctx, "early", "*/1 * * * * *", template); err == nil {
		t.Fatal("expected error before install")
	}

	app := kernel.New(kernel.Config{}, storage.NewMemory())
	if err := app.Install(ts); err != nil {
		t.Fatal(err)
	}

	if err := ts.Add(ctx, "bad", "not a cron expression", template); err == nil {
		t.Fatal("expected bad-expression error")
	}

	if err := ts.Cancel("ghost"); err == nil {
		t.Fatal("expected error for unknown job")
	}
}

func TestReplace(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := kernel.New(kernel.Config{}, storage.NewMemory())
	ts := NewTab()
	if err := app.Install(ts); err != nil {
		t.Fatal(err)
	}

	template := &kernel.Session{RawText: "tick", Dimension: scope.NoDimension}

	// Same id twice: the second Add replaces the first.
	if err := ts.Add(ctx, "j", "0 0 1 1 *", template); err != nil {
		t.Fatal(err)
	}
	if err := ts.Add(ctx, "j", "0 0 2 1 *", template); err != nil {
		t.Fatal(err)
	}
	if ids := ts.Jobs(); len(ids) != 1 || ids[0] != "j" {
		t.Fatal(ids)
	}
}
