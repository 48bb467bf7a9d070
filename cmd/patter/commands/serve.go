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
	"fmt"
	"os/signal"
	"syscall"

	"github.com/Comcast/patter/adapter"
	"github.com/Comcast/patter/adapter/mqtt"
	"github.com/Comcast/patter/adapter/websocket"
	"github.com/Comcast/patter/kernel"
	"github.com/Comcast/patter/plugin/cron"
	"github.com/Comcast/patter/plugin/js"
	"github.com/Comcast/patter/storage"
	"github.com/Comcast/patter/storage/bolt"
	sredis "github.com/Comcast/patter/storage/redis"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/fatih/color"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(configFile)
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg *Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	couplings, err := buildCouplings(app, cfg)
	if err != nil {
		return err
	}
	for _, c := range couplings {
		if err := c.Start(ctx); err != nil {
			return err
		}
	}

	color.Green("patter %s ready (%d commands, %d adapters)",
		version, len(app.Commands()), len(couplings))

	<-ctx.Done()
	color.Yellow("patter shutting down")

	sctx := context.Background()
	for _, c := range couplings {
		if err := c.Stop(sctx); err != nil {
			color.Red("adapter stop error: %s", err)
		}
	}
	return nil
}

// buildApp assembles the kernel from configuration: storage backend,
// scripts, and cron jobs.  The returned cleanup closes the backend.
func buildApp(ctx context.Context, cfg *Config) (*kernel.App, func(), error) {
	kc, err := cfg.KernelConfig()
	if err != nil {
		return nil, nil, err
	}

	store, cleanup, err := buildStorage(cfg.Storage)
	if err != nil {
		return nil, nil, err
	}

	app := kernel.New(kc, store)

	if cfg.Scripts != "" {
		scripts, err := js.LoadManifest(cfg.Scripts)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		for _, s := range scripts {
			if err := app.Install(s); err != nil {
				cleanup()
				return nil, nil, err
			}
			color.Cyan("script %s installed", s.Name)
		}
	}

	if 0 < len(cfg.Cron) {
		tab := cron.NewTab()
		if err := app.Install(tab); err != nil {
			cleanup()
			return nil, nil, err
		}
		for _, j := range cfg.Cron {
			template, err := j.Frame.Session()
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("cron job %s: %w", j.Id, err)
			}
			if err := tab.Add(ctx, j.Id, j.Expr, template); err != nil {
				cleanup()
				return nil, nil, err
			}
			color.Cyan("cron job %s scheduled (%s)", j.Id, j.Expr)
		}
	}

	return app, cleanup, nil
}

func buildStorage(cfg StorageConfig) (storage.Provider, func(), error) {
	switch cfg.Backend {
	case "", "memory":
		return storage.NewMemory(), func() {}, nil
	case "bolt":
		if cfg.BoltFile == "" {
			return nil, nil, fmt.Errorf("bolt backend needs a boltFile")
		}
		s, err := bolt.Open(cfg.BoltFile)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "redis":
		prefix := cfg.Redis.Prefix
		if prefix == "" {
			prefix = "patter"
		}
		s, err := sredis.New(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, prefix)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func buildCouplings(app *kernel.App, cfg *Config) ([]adapter.Coupling, error) {
	couplings := make([]adapter.Coupling, 0, len(cfg.Websockets)+1)
	for _, url := range cfg.Websockets {
		couplings = append(couplings, websocket.NewClient(app, url))
	}
	if cfg.MQTT != nil {
		opts := paho.NewClientOptions()
		opts.AddBroker(cfg.MQTT.Broker)
		opts.SetClientID(cfg.MQTT.ClientID)
		opts.Username = cfg.MQTT.Username
		opts.Password = cfg.MQTT.Password
		quiesce := cfg.MQTT.QuiesceMS
		if quiesce == 0 {
			quiesce = 100
		}
		couplings = append(couplings,
			mqtt.NewCoupling(app, opts, cfg.MQTT.SubTopics, cfg.MQTT.PubTopic, quiesce))
	}
	return couplings, nil
}
