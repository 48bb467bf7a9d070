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

package js

import (
	"fmt"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// Requires returns the names in a source's top-level require()
// calls.
//
// A require() call here is a declaration, not an import mechanism:
// the caller gathers the named libraries (and theirs, recursively)
// and prepends their sources before compiling.  Only top-level calls
// count; a require() buried in a function body is just a runtime
// error waiting to happen.
func Requires(src string) ([]string, error) {
	p, err := parser.ParseFile(nil, "", src, 0)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, 4)
	for _, s := range p.Body {
		exps, is := s.(*ast.ExpressionStatement)
		if !is {
			continue
		}
		call, is := exps.Expression.(*ast.CallExpression)
		if !is {
			continue
		}
		id, is := call.Callee.(*ast.Identifier)
		if !is || id.Name != "require" {
			continue
		}
		if len(call.ArgumentList) != 1 {
			return nil, fmt.Errorf("bad require args: %#v", call.ArgumentList)
		}
		lit, is := call.ArgumentList[0].(*ast.StringLiteral)
		if !is {
			return nil, fmt.Errorf("bad require arg: %#v", call.ArgumentList[0])
		}
		names = append(names, string(lit.Value))
	}

	return names, nil
}
