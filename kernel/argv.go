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

import "strings"

// Argv is a parsed command invocation: the matched command plus
// positional arguments and named options.
type Argv struct {
	Command *Command               `json:"-"`
	Args    []string               `json:"args,omitempty"`
	Options map[string]interface{} `json:"options,omitempty"`

	next NextFunc
}

// Next invokes the continuation installed by Execute.  Errors raised
// inside the continuation propagate to Execute's caller instead of
// being suppressed.
func (av *Argv) Next() (string, error) {
	if av.next == nil {
		return "", nil
	}
	return av.next()
}

// ParseCommand resolves message text to a command invocation, or nil
// when the text doesn't name a command.
//
// Resolution order: an exact shortcut match, then the configured
// prefix followed by a registered command name or alias.  The
// remaining tokens go through a deliberately small grammar: "--key",
// "--key=value", and "-key" are options, everything else is a
// positional argument.  Richer argument grammars belong in front of
// Dispatch -- hand the Session a pre-built Argv and this parse step
// is skipped.
func (a *App) ParseCommand(text string) *Argv {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	a.mu.Lock()
	cmd, have := a.shortcuts[text]
	a.mu.Unlock()
	if have {
		return &Argv{
			Command: cmd,
			Args:    []string{},
			Options: map[string]interface{}{},
		}
	}

	if p := a.conf.Prefix; p != "" {
		if !strings.HasPrefix(text, p) {
			return nil
		}
		text = text[len(p):]
	}

	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}

	a.mu.Lock()
	cmd = a.commands[tokens[0]]
	a.mu.Unlock()
	if cmd == nil {
		return nil
	}

	return parseArgv(cmd, tokens[1:])
}

func parseArgv(cmd *Command, tokens []string) *Argv {
	av := &Argv{
		Command: cmd,
		Args:    []string{},
		Options: map[string]interface{}{},
	}
	for _, tok := range tokens {
		switch {
		case strings.HasPrefix(tok, "--"):
			key := tok[2:]
			if k, v, ok := strings.Cut(key, "="); ok {
				av.Options[k] = v
			} else {
				av.Options[key] = true
			}
		case 1 < len(tok) && strings.HasPrefix(tok, "-"):
			av.Options[tok[1:]] = true
		default:
			av.Args = append(av.Args, tok)
		}
	}
	return av
}
