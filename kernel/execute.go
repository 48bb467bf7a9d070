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
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// BeforeCommandEvent is the reserved hook name consulted (as a Bail)
// before any command's action chain runs.  A handler returning a
// non-empty string blocks the command, and that string is the
// user-facing outcome.
const BeforeCommandEvent = "before-command"

// continuationError tags an error or panic that was raised after
// control passed into the continuation.  Execute propagates those
// instead of suppressing them: the failure belongs to the caller's
// code, not to this command.
type continuationError struct {
	err error
}

func (e *continuationError) Error() string { return e.err.Error() }
func (e *continuationError) Unwrap() error { return e.err }

// Execute runs the command's pipeline for one invocation.
//
//  1. Missing args/options are normalized to empty containers.
//  2. The continuation is wrapped so that errors raised inside it
//     are attributed to the caller, not to this command.
//  3. Per-command checkers and then the "before-command" hooks run as
//     a Bail; the first non-empty string is returned without
//     executing the command.
//  4. The action chain runs in order.  The first non-empty string is
//     the result; no string at all yields "" meaning handled, no
//     output.
//
// An action or checker error (or panic) raised before the
// continuation was entered is logged with a trimmed stack and
// suppressed -- the invocation just yields no result.  An error or
// panic from inside the continuation propagates (as an error).
func (cmd *Command) Execute(ctx context.Context, s *Session, av *Argv, next NextFunc) (result string, err error) {
	if av == nil {
		av = &Argv{Command: cmd}
	}
	if av.Args == nil {
		av.Args = []string{}
	}
	if av.Options == nil {
		av.Options = map[string]interface{}{}
	}

	av.next = func() (string, error) {
		if next == nil {
			return "", nil
		}
		// A panic in the continuation is the caller's throw, not
		// ours.  Tag it so the recover below propagates it.
		defer func() {
			if x := recover(); x != nil {
				panic(&continuationError{err: fmt.Errorf("panic: %v", x)})
			}
		}()
		r, nerr := next()
		if nerr != nil {
			return r, &continuationError{err: nerr}
		}
		return r, nil
	}

	defer func() {
		if x := recover(); x != nil {
			if ce, is := x.(*continuationError); is {
				result, err = "", ce.err
				return
			}
			result, err = cmd.fail(fmt.Errorf("panic: %v", x))
		}
	}()

	for _, check := range cmd.checkers {
		r, cerr := check(ctx, s, av)
		if cerr != nil {
			return cmd.fail(cerr)
		}
		if r != "" {
			return r, nil
		}
	}

	v, berr := cmd.app.Bail(BeforeCommandEvent, s)
	if berr != nil {
		return cmd.fail(berr)
	}
	if r, is := v.(string); is && r != "" {
		return r, nil
	}

	for _, act := range cmd.actions {
		r, aerr := act(ctx, s, av)
		if aerr != nil {
			return cmd.fail(aerr)
		}
		if r != "" {
			return r, nil
		}
	}
	return "", nil
}

// fail sorts an error by where it was raised.  Continuation-phase
// errors propagate.  Everything else is logged with a stack trimmed
// of kernel frames and suppressed.
func (cmd *Command) fail(err error) (string, error) {
	var ce *continuationError
	if errors.As(err, &ce) {
		return "", ce.err
	}
	cmd.app.Logf("command %q error: %s\n%s", cmd.name, err, trimStack(debug.Stack()))
	return "", nil
}

// trimStack drops the frames below the original call site: the
// runtime's stack machinery and this package's own dispatch frames.
func trimStack(stack []byte) string {
	lines := strings.Split(string(stack), "\n")
	acc := make([]string, 0, len(lines))
	if 0 < len(lines) {
		acc = append(acc, lines[0]) // "goroutine N [running]:"
		lines = lines[1:]
	}
	for i := 0; i+1 < len(lines); i += 2 {
		fn := lines[i]
		if strings.Contains(fn, "runtime/debug.Stack") ||
			strings.Contains(fn, "github.com/Comcast/patter/kernel.") {
			continue
		}
		acc = append(acc, fn, lines[i+1])
	}
	return strings.Join(acc, "\n")
}
