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
	"io/ioutil"
	"path/filepath"
	"time"

	"github.com/jsccast/yaml"
)

// ManifestEntry describes one script in a manifest.  Either Source
// (inline) or File (relative to the manifest) must be given.
type ManifestEntry struct {
	Name     string   `yaml:"name"`
	Source   string   `yaml:"source,omitempty"`
	File     string   `yaml:"file,omitempty"`
	Requires []string `yaml:"requires,omitempty"`
	Scope    string   `yaml:"scope,omitempty"`

	// TimeoutMS bounds the script's initial run, in milliseconds.
	TimeoutMS int `yaml:"timeoutMs,omitempty"`
}

// Manifest is a YAML file listing scripts to install.
type Manifest struct {
	Scripts []ManifestEntry `yaml:"scripts"`
}

// LoadManifest reads a manifest and builds its Scripts.  Library
// links ("file://NAME") resolve relative to the manifest's directory.
func LoadManifest(filename string) ([]*Script, error) {
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err = yaml.Unmarshal(bs, &m); err != nil {
		return nil, fmt.Errorf("bad manifest %s: %w", filename, err)
	}

	dir := filepath.Dir(filename)
	provider := FileLibraryProvider(dir)

	scripts := make([]*Script, 0, len(m.Scripts))
	for _, e := range m.Scripts {
		if e.Name == "" {
			return nil, fmt.Errorf("manifest %s: script with no name", filename)
		}
		src := e.Source
		if src == "" {
			if e.File == "" {
				return nil, fmt.Errorf("manifest %s: script %s has no source", filename, e.Name)
			}
			bs, err := ioutil.ReadFile(filepath.Join(dir, e.File))
			if err != nil {
				return nil, fmt.Errorf("manifest %s: script %s: %w", filename, e.Name, err)
			}
			src = string(bs)
		}
		scripts = append(scripts, &Script{
			Name:            e.Name,
			Source:          src,
			Requires:        e.Requires,
			Scope:           e.Scope,
			LibraryProvider: provider,
			Timeout:         time.Duration(e.TimeoutMS) * time.Millisecond,
		})
	}

	return scripts, nil
}
