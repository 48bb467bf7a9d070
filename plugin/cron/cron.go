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

// Package cron schedules synthetic sessions.
//
// A Tab holds named jobs, each with a cron expression and a session
// template.  At every activation the job dispatches a copy of its
// template through the application, so scheduled work flows through
// the same middleware and command pipeline as real traffic.
package cron

// ToDo: Tab.Suspend, Tab.Resume

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Comcast/patter/kernel"

	"github.com/gorhill/cronexpr"
)

// Job is one scheduled dispatch.
type Job struct {
	Id string

	// Expr is the job's cron expression ("*/5 * * * *" and
	// friends).
	Expr string

	// Session is the template.  Each activation dispatches a
	// shallow copy with a fresh id.
	Session *kernel.Session

	// Ctl cancels the job when closed.
	Ctl chan bool `json:"-"`

	expr *cronexpr.Expression
	tab  *Tab
}

// Tab represents pending jobs.
type Tab struct {
	Map map[string]*Job

	sync.Mutex

	kctx *kernel.Context
}

// NewTab creates an empty job table.
func NewTab() *Tab {
	return &Tab{
		Map: make(map[string]*Job, 8),
	}
}

// Apply makes a Tab a kernel plugin.  Sessions it dispatches are
// still scope-checked per registration, so narrowing the install
// context does what you'd hope.
func (ts *Tab) Apply(c *kernel.Context) error {
	ts.Lock()
	ts.kctx = c
	ts.Unlock()
	return nil
}

func (ts *Tab) logf(format string, args ...interface{}) {
	if ts.kctx != nil {
		ts.kctx.App().Logf(format, args...)
	}
}

// Add schedules a new job.  Adding an id that's already scheduled
// cancels the old job first.
func (ts *Tab) Add(ctx context.Context, id, expr string, template *kernel.Session) error {
	ts.logf("Tab.Add %s %s", id, expr)

	parsed, err := cronexpr.Parse(expr)
	if err != nil {
		return fmt.Errorf("bad cron expression %q: %w", expr, err)
	}

	ts.Lock()
	defer ts.Unlock()

	if ts.kctx == nil {
		return fmt.Errorf("cron tab not installed")
	}

	if _, have := ts.Map[id]; have {
		if err := ts.cancel(id); err != nil {
			return err
		}
	}

	j := &Job{
		Id:      id,
		Expr:    expr,
		Session: template,
		Ctl:     make(chan bool),
		expr:    parsed,
		tab:     ts,
	}
	ts.Map[id] = j

	go j.run(ctx)

	return nil
}

// run waits for each activation in turn until the job is cancelled,
// the surrounding context is done, or the expression has no further
// activations.
func (j *Job) run(ctx context.Context) {
	for {
		next := j.expr.Next(time.Now())
		if next.IsZero() {
			j.tab.logf("Job %s exhausted", j.Id)
			j.tab.Lock()
			delete(j.tab.Map, j.Id)
			j.tab.Unlock()
			return
		}

		t := time.NewTimer(next.Sub(time.Now()))
		select {
		case <-t.C:
			j.tab.logf("Firing job '%s'", j.Id)
			j.fire(ctx)
		case <-j.Ctl:
			t.Stop()
			j.tab.logf("Canceling job '%s'", j.Id)
			return
		case <-ctx.Done():
			t.Stop()
			return
		}
	}
}

func (j *Job) fire(ctx context.Context) {
	s := *j.Session
	s.ID = ""
	if _, err := j.tab.kctx.App().Dispatch(ctx, &s); err != nil {
		j.tab.logf("Job %s dispatch error %s", j.Id, err)
	}
}

func (ts *Tab) cancel(id string) error {
	j, have := ts.Map[id]
	if !have {
		return fmt.Errorf("job '%s' doesn't exist", id)
	}
	delete(ts.Map, id)

	close(j.Ctl)

	return nil
}

// Cancel attempts to cancel the job with the given id.
func (ts *Tab) Cancel(id string) error {
	ts.logf("Tab.Cancel %s", id)
	ts.Lock()
	err := ts.cancel(id)
	ts.Unlock()
	return err
}

// Jobs returns a snapshot of the scheduled job ids.
func (ts *Tab) Jobs() []string {
	ts.Lock()
	defer ts.Unlock()
	ids := make([]string, 0, len(ts.Map))
	for id := range ts.Map {
		ids = append(ids, id)
	}
	return ids
}
