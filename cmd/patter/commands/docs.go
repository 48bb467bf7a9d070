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

package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/Comcast/patter/kernel"

	md "github.com/russross/blackfriday/v2"
	"github.com/spf13/cobra"
)

var docsOut string

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Render registered command help as HTML",
	Long: `docs assembles the bot from the configuration (installing its
scripts, which register their commands) and renders every registered
command's help as HTML.  Help text is treated as Markdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(configFile)
		if err != nil {
			return err
		}

		app, cleanup, err := buildApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		out := os.Stdout
		if docsOut != "" {
			f, err := os.Create(docsOut)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		return renderCommandsHTML(app, out)
	},
}

func init() {
	docsCmd.Flags().StringVarP(&docsOut, "out", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(docsCmd)
}

func renderCommandsHTML(app *kernel.App, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	f(`<div class="commands"><table>`)
	for _, cmd := range app.Commands() {
		f(`<tr class="command"><td><span id="%s" class="commandName">%s</span></td><td>`,
			cmd.Name(), cmd.Name())

		if decl := cmd.Declaration(); decl != "" {
			f(`<div class="code"><pre>%s %s</pre></div>`, cmd.Name(), decl)
		}
		if help := cmd.Conf().Help; help != "" {
			f(`<div class="commandDoc doc">%s</div>`, md.Run([]byte(help)))
		}
		if scope := cmd.Context().ID(); scope != "" {
			f(`<div class="commandScope"><code>%s</code></div>`, scope)
		}

		opts := visibleOptions(cmd)
		if 0 < len(opts) {
			f(`<div class="options"><table>`)
			for _, o := range opts {
				f(`<tr><td><code>--%s</code></td><td>%s</td></tr>`,
					o.Name, md.Run([]byte(o.Description)))
			}
			f(`</table></div>`)
		}

		f(`</td></tr>`)
	}
	f(`</table></div>`)

	return nil
}

func visibleOptions(cmd *kernel.Command) []*kernel.Option {
	acc := make([]*kernel.Option, 0, 4)
	for _, o := range cmd.Options() {
		if o.Config.Hidden {
			continue
		}
		acc = append(acc, o)
	}
	return acc
}
