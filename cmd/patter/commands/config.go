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
	"io/ioutil"
	"time"

	"github.com/Comcast/patter/adapter"
	"github.com/Comcast/patter/kernel"

	yaml "gopkg.in/yaml.v2"
)

// Config is the daemon's YAML configuration.
type Config struct {
	Prefix           string `yaml:"prefix,omitempty"`
	Verbose          bool   `yaml:"verbose,omitempty"`
	DefaultAuthority int64  `yaml:"defaultAuthority,omitempty"`

	// Cache timeouts as durations ("30s", "5m").  Empty means no
	// caching.
	UserCacheTimeout  string `yaml:"userCacheTimeout,omitempty"`
	GroupCacheTimeout string `yaml:"groupCacheTimeout,omitempty"`

	Storage StorageConfig `yaml:"storage,omitempty"`

	// Scripts is the path to a script manifest (see plugin/js).
	Scripts string `yaml:"scripts,omitempty"`

	Cron []CronJobConfig `yaml:"cron,omitempty"`

	// Websockets lists ws:// endpoints to dial.
	Websockets []string `yaml:"websockets,omitempty"`

	MQTT *MQTTConfig `yaml:"mqtt,omitempty"`
}

// StorageConfig selects and parameterizes the storage backend.
type StorageConfig struct {
	// Backend is "memory", "bolt", or "redis".  Empty means
	// memory.
	Backend string `yaml:"backend,omitempty"`

	// BoltFile is the database filename for the bolt backend.
	BoltFile string `yaml:"boltFile,omitempty"`

	Redis RedisConfig `yaml:"redis,omitempty"`
}

// RedisConfig parameterizes the redis backend.
type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

// CronJobConfig is one scheduled synthetic event.
type CronJobConfig struct {
	Id    string        `yaml:"id"`
	Expr  string        `yaml:"expr"`
	Frame adapter.Frame `yaml:"frame"`
}

// MQTTConfig parameterizes the MQTT adapter.
type MQTTConfig struct {
	Broker    string `yaml:"broker"`
	ClientID  string `yaml:"clientId,omitempty"`
	Username  string `yaml:"username,omitempty"`
	Password  string `yaml:"password,omitempty"`
	SubTopics string `yaml:"subTopics"`
	PubTopic  string `yaml:"pubTopic"`
	QuiesceMS uint   `yaml:"quiesceMs,omitempty"`
}

// LoadConfig reads and parses a configuration file.
func LoadConfig(filename string) (*Config, error) {
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var c Config
	if err = yaml.Unmarshal(bs, &c); err != nil {
		return nil, fmt.Errorf("bad config %s: %w", filename, err)
	}
	return &c, nil
}

// KernelConfig maps the daemon configuration to the kernel's.
func (c *Config) KernelConfig() (kernel.Config, error) {
	kc := kernel.Config{
		Prefix:           c.Prefix,
		Verbose:          c.Verbose,
		DefaultAuthority: c.DefaultAuthority,
	}
	var err error
	if kc.UserCacheTimeout, err = parseTimeout(c.UserCacheTimeout); err != nil {
		return kc, fmt.Errorf("userCacheTimeout: %w", err)
	}
	if kc.GroupCacheTimeout, err = parseTimeout(c.GroupCacheTimeout); err != nil {
		return kc, fmt.Errorf("groupCacheTimeout: %w", err)
	}
	return kc, nil
}

func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
