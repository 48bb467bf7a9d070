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
	"context"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	filename := filepath.Join(dir, name)
	if err := ioutil.WriteFile(filename, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return filename
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	filename := writeFile(t, dir, "patter.yaml", `
prefix: "!"
verbose: true
defaultAuthority: 1
userCacheTimeout: 30s
storage:
  backend: bolt
  boltFile: patter.db
cron:
  - id: tick
    expr: "0 * * * *"
    frame:
      dimension: group
      dimensionId: 9
      sender: 7
      text: tick
websockets:
  - ws://localhost:8080/events
`)

	cfg, err := LoadConfig(filename)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Prefix != "!" || !cfg.Verbose || cfg.Storage.Backend != "bolt" {
		t.Fatalf("%#v", cfg)
	}
	if len(cfg.Cron) != 1 || cfg.Cron[0].Frame.DimensionID != 9 {
		t.Fatalf("%#v", cfg.Cron)
	}

	kc, err := cfg.KernelConfig()
	if err != nil {
		t.Fatal(err)
	}
	if kc.UserCacheTimeout != 30*time.Second || kc.GroupCacheTimeout != 0 {
		t.Fatalf("%#v", kc)
	}
	if kc.Prefix != "!" || kc.DefaultAuthority != 1 {
		t.Fatalf("%#v", kc)
	}
}

func TestLoadConfigBadTimeout(t *testing.T) {
	cfg := &Config{UserCacheTimeout: "soon"}
	if _, err := cfg.KernelConfig(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestBuildStorage(t *testing.T) {
	if _, _, err := buildStorage(StorageConfig{Backend: "etcd"}); err == nil {
		t.Fatal("expected unknown-backend error")
	}
	if _, _, err := buildStorage(StorageConfig{Backend: "bolt"}); err == nil {
		t.Fatal("expected missing-file error")
	}

	store, cleanup, err := buildStorage(StorageConfig{})
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()
	if store == nil {
		t.Fatal("no store")
	}
}

func TestBuildAppAndDocs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "scripts.yaml", `
scripts:
  - name: snacks
    source: |
      _.command("queso", function (s) { return "mild"; });
`)
	filename := writeFile(t, dir, "patter.yaml", `
scripts: `+filepath.Join(dir, "scripts.yaml")+`
cron:
  - id: lunch
    expr: "0 12 * * *"
    frame:
      text: lunchtime
`)

	cfg, err := LoadConfig(filename)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, cleanup, err := buildApp(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()

	if app.GetCommand("queso") == nil {
		t.Fatal("script command not registered")
	}

	var b strings.Builder
	if err := renderCommandsHTML(app, &b); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), "queso") {
		t.Fatal(b.String())
	}
}
