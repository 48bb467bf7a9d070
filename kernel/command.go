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
	"fmt"
	"strings"
	"unicode"
)

// CommandConfig provides per-command parameters.
type CommandConfig struct {
	// Authority is the minimum sender authority for this command.
	// Gating on it is up to a before-command hook; the kernel
	// just carries the number.
	Authority int64 `json:"authority,omitempty" yaml:"authority,omitempty"`

	// Help is a one-line description.
	Help string `json:"help,omitempty" yaml:"help,omitempty"`
}

// OptionConfig provides per-option parameters.
type OptionConfig struct {
	Authority int64 `json:"authority,omitempty" yaml:"authority,omitempty"`
	Hidden    bool  `json:"hidden,omitempty" yaml:"hidden,omitempty"`

	// Action, if not nil, joins the command's action chain
	// guarded on the option actually being supplied.
	Action Action `json:"-" yaml:"-"`
}

// Option is a declared named option.
type Option struct {
	Name        string
	Description string
	Config      OptionConfig
}

// Action is one link in a command's action chain.  The first action
// to return a non-empty string ends the chain with that result; an
// empty string means "not mine, keep going".
type Action func(ctx context.Context, s *Session, av *Argv) (string, error)

// Command is one node in the command forest.
//
// Names and aliases are unique process-wide (per App).  A command's
// context always contains every child's context; that invariant is
// checked when the relationship is established and can't be broken
// afterward since contexts are immutable.
type Command struct {
	name        string
	declaration string
	conf        CommandConfig

	ctx    *Context
	parent *Command

	children    []*Command
	aliases     []string
	shortcuts   []string
	options     map[string]*Option
	optionOrder []string

	actions  []Action
	checkers []Action

	userFields  []string
	groupFields []string

	app *App
}

func newCommand(a *App, name string, c *Context) *Command {
	cmd := &Command{
		name:    name,
		ctx:     c,
		options: make(map[string]*Option),
		app:     a,
	}
	// Every command answers --help.
	cmd.options["help"] = &Option{
		Name:        "help",
		Description: "show help for this command",
		Config:      OptionConfig{Hidden: true},
	}
	cmd.optionOrder = append(cmd.optionOrder, "help")
	return cmd
}

func (cmd *Command) Name() string          { return cmd.name }
func (cmd *Command) Declaration() string   { return cmd.declaration }
func (cmd *Command) Conf() CommandConfig   { return cmd.conf }
func (cmd *Command) Context() *Context     { return cmd.ctx }
func (cmd *Command) Parent() *Command      { return cmd.parent }

// Children returns a copy of the (ordered) child list.
func (cmd *Command) Children() []*Command {
	acc := make([]*Command, len(cmd.children))
	copy(acc, cmd.children)
	return acc
}

// Options returns the declared options in declaration order.
func (cmd *Command) Options() []*Option {
	acc := make([]*Option, 0, len(cmd.optionOrder))
	for _, name := range cmd.optionOrder {
		acc = append(acc, cmd.options[name])
	}
	return acc
}

// Command declares (or extends) a command reachable from this
// context.
//
// The declaration is split at its first whitespace into a path and a
// trailing argument declaration (which the kernel stores but doesn't
// interpret).  The path is split at each "." or "/": a segment
// starting with "." names a subcommand in the parent's namespace
// (declaring "a" then "a.b" gives a child of "a" named "a.b"), and a
// segment starting with "/" is a root-relative name.
//
// Reusing an existing name extends that command, subject to the
// containment rules: the existing command must either already have
// the resolved parent, or be parentless with a context the parent's
// contains.  Everything else is a fatal setup error.  A fresh command
// is anchored at the intersection of the parent's context and the
// calling context; if that intersection matches nothing, the command
// could never fire, which is also a fatal setup error.
func (c *Context) Command(def string, conf ...CommandConfig) (*Command, error) {
	path, decl := splitDeclaration(def)

	a := c.app
	a.mu.Lock()
	defer a.mu.Unlock()

	var parent, cmd *Command
	for _, seg := range splitPath(path) {
		name := segmentName(parent, seg)
		if name == "" {
			return nil, fmt.Errorf("%w: empty name in %q", ErrInvalidSubcommand, def)
		}

		if existing := a.commands[name]; existing != nil {
			if parent != nil {
				switch {
				case existing == parent:
					return nil, fmt.Errorf("%w: %q can't be its own parent", ErrInvalidSubcommand, name)
				case existing.parent == parent:
					// Already linked.
				case existing.parent != nil:
					return nil, fmt.Errorf("%w: %q already belongs to %q",
						ErrInvalidSubcommand, name, existing.parent.name)
				case parent.ctx.Contain(existing.ctx):
					link(parent, existing)
				default:
					return nil, fmt.Errorf("%w: %q (%s) not contained by %q (%s)",
						ErrInvalidContext, name, existing.ctx.ID(), parent.name, parent.ctx.ID())
				}
			}
			cmd = existing
			parent = cmd
			continue
		}

		cctx := c
		if parent != nil {
			cctx = parent.ctx.Intersect(c)
		}
		if cctx.scope.IsNull() {
			return nil, fmt.Errorf("%w: %q would be unreachable", ErrInvalidContext, name)
		}

		cmd = newCommand(a, name, cctx)
		a.commands[name] = cmd
		a.commandList = append(a.commandList, cmd)
		if parent != nil {
			link(parent, cmd)
		}
		parent = cmd
	}

	if cmd == nil {
		return nil, fmt.Errorf("%w: empty declaration %q", ErrInvalidSubcommand, def)
	}
	if decl != "" {
		cmd.declaration = decl
	}
	if 0 < len(conf) {
		cmd.conf = conf[0]
	}
	return cmd, nil
}

func link(parent, child *Command) {
	child.parent = parent
	parent.children = append(parent.children, child)
}

// splitDeclaration splits "path rest of declaration" at the first
// whitespace.
func splitDeclaration(def string) (string, string) {
	if i := strings.IndexFunc(def, unicode.IsSpace); 0 <= i {
		return def[:i], strings.TrimSpace(def[i:])
	}
	return def, ""
}

// splitPath splits at each boundary immediately preceding "." or "/".
// "a.b/c" becomes ["a", ".b", "/c"].
func splitPath(path string) []string {
	acc := make([]string, 0, 2)
	start := 0
	for i := 1; i < len(path); i++ {
		if path[i] == '.' || path[i] == '/' {
			acc = append(acc, path[start:i])
			start = i
		}
	}
	return append(acc, path[start:])
}

func segmentName(parent *Command, seg string) string {
	switch {
	case strings.HasPrefix(seg, "."):
		if parent != nil {
			return parent.name + seg
		}
		return seg[1:]
	case strings.HasPrefix(seg, "/"):
		return seg[1:]
	default:
		return seg
	}
}

// Alias registers additional names for the command.  A name already
// taken by a different command is a fatal setup error.
func (cmd *Command) Alias(names ...string) error {
	a := cmd.app
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, name := range names {
		if have, ok := a.commands[name]; ok {
			if have == cmd {
				continue
			}
			return fmt.Errorf("%w: %q already names %q", ErrDuplicateName, name, have.name)
		}
		a.commands[name] = cmd
		cmd.aliases = append(cmd.aliases, name)
	}
	return nil
}

// Shortcut registers exact message texts that invoke the command
// without the prefix.
func (cmd *Command) Shortcut(texts ...string) error {
	a := cmd.app
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, text := range texts {
		if have, ok := a.shortcuts[text]; ok {
			if have == cmd {
				continue
			}
			return fmt.Errorf("%w: shortcut %q already names %q", ErrDuplicateName, text, have.name)
		}
		a.shortcuts[text] = cmd
		cmd.shortcuts = append(cmd.shortcuts, text)
	}
	return nil
}

// Option declares a named option.
//
// An option with an Action joins the action chain guarded on the
// option key actually being present in the parsed options.  Guarded
// actions go to the front of the chain in declaration order, so a
// later-declared option's guard runs before an earlier one's, and all
// guards run before plain appended actions.
func (cmd *Command) Option(name, description string, conf ...OptionConfig) *Command {
	o := &Option{Name: name, Description: description}
	if 0 < len(conf) {
		o.Config = conf[0]
	}
	if _, have := cmd.options[name]; !have {
		cmd.optionOrder = append(cmd.optionOrder, name)
	}
	cmd.options[name] = o

	if fn := o.Config.Action; fn != nil {
		guarded := func(ctx context.Context, s *Session, av *Argv) (string, error) {
			if _, supplied := av.Options[name]; !supplied {
				return "", nil
			}
			return fn(ctx, s, av)
		}
		cmd.actions = append([]Action{guarded}, cmd.actions...)
	}
	return cmd
}

// Action appends to the action chain.
func (cmd *Command) Action(fn Action) *Command {
	cmd.actions = append(cmd.actions, fn)
	return cmd
}

// PrependAction inserts at the front of the action chain.
func (cmd *Command) PrependAction(fn Action) *Command {
	cmd.actions = append([]Action{fn}, cmd.actions...)
	return cmd
}

// Check adds a before-command checker.  A checker returning a
// non-empty string blocks execution, and that string is the
// user-facing outcome.
func (cmd *Command) Check(fn Action) *Command {
	cmd.checkers = append(cmd.checkers, fn)
	return cmd
}

// UserFields declares user record fields this command needs fetched
// before it runs.
func (cmd *Command) UserFields(fields ...string) *Command {
	cmd.userFields = append(cmd.userFields, fields...)
	return cmd
}

// GroupFields declares group record fields this command needs fetched
// before it runs.
func (cmd *Command) GroupFields(fields ...string) *Command {
	cmd.groupFields = append(cmd.groupFields, fields...)
	return cmd
}

// Dispose removes the command: children first (recursively), then its
// aliases and shortcuts, its slot in the parent's child list, and the
// global registries.
func (cmd *Command) Dispose() {
	for _, child := range cmd.Children() {
		child.Dispose()
	}

	a := cmd.app
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, name := range cmd.aliases {
		delete(a.commands, name)
	}
	delete(a.commands, cmd.name)
	for _, text := range cmd.shortcuts {
		delete(a.shortcuts, text)
	}

	if p := cmd.parent; p != nil {
		for i, have := range p.children {
			if have == cmd {
				p.children = append(p.children[:i:i], p.children[i+1:]...)
				break
			}
		}
		cmd.parent = nil
	}

	for i, have := range a.commandList {
		if have == cmd {
			a.commandList = append(a.commandList[:i:i], a.commandList[i+1:]...)
			break
		}
	}
}

// Commands returns the registered commands in registration order.
func (a *App) Commands() []*Command {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc := make([]*Command, len(a.commandList))
	copy(acc, a.commandList)
	return acc
}

// GetCommand resolves a name or alias.
func (a *App) GetCommand(name string) *Command {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.commands[name]
}
