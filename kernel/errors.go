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

import "errors"

var (
	// ErrInvalidPlugin occurs when installing a nil plugin.
	ErrInvalidPlugin = errors.New("invalid plugin")

	// ErrInvalidSubcommand occurs when a command declaration
	// would make a command its own ancestor or conflict with an
	// already-established parent.
	ErrInvalidSubcommand = errors.New("invalid subcommand")

	// ErrInvalidContext occurs when a command's context wouldn't
	// be contained by its parent's, or when the resolved context
	// matches nothing (so the command could never fire).
	ErrInvalidContext = errors.New("invalid context")

	// ErrDuplicateName occurs when a command name or alias is
	// already taken by a different command.
	ErrDuplicateName = errors.New("duplicate command name")
)
