// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

// Package config provides the configuration of the bg770a tool, loaded from
// a YAML file and overridden by the environment.
package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/warthog618/bg770a/at"
	"github.com/warthog618/bg770a/board"
	"github.com/warthog618/bg770a/network"
	"github.com/warthog618/bg770a/serial"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables that override the file.
//
// Nested keys are separated by a double underscore, e.g.
// BG770A_NETWORK__APN.
const EnvPrefix = "BG770A_"

// Config is the configuration of the tool.
type Config struct {
	Port  string `yaml:"port"`
	Baud  int    `yaml:"baud"`
	Board string `yaml:"board"`

	EchoTimeout    time.Duration `yaml:"echo_timeout"`
	PowerOnTimeout time.Duration `yaml:"power_on_timeout"`

	Log   Log     `yaml:"log"`
	Trace Trace   `yaml:"trace"`
	Net   Network `yaml:"network"`

	// Address serving metrics, e.g. ":2112". Empty disables.
	MetricsAddr string `yaml:"metrics_addr"`
}

// Log configures logging.
type Log struct {
	// debug, info, warn or error
	Level string `yaml:"level"`

	// text, json, or auto for text on a terminal and json otherwise
	Format string `yaml:"format"`
}

// Trace configures tracing of the serial traffic.
type Trace struct {
	Enabled bool `yaml:"enabled"`
	Hex     bool `yaml:"hex"`
}

// Network configures the network bring up.
type Network struct {
	SearchAccessTechnology string        `yaml:"search_access_technology"`
	LTEMBand               string        `yaml:"ltem_band"`
	NBIoTBand              string        `yaml:"nbiot_band"`
	PdpContextID           int           `yaml:"pdp_context_id"`
	APN                    string        `yaml:"apn"`
	DeregisterTimeout      time.Duration `yaml:"deregister_timeout"`
}

// Default returns the default configuration.
func Default() Config {
	nc := network.DefaultConfig()
	return Config{
		Port:           serial.DefaultPort(),
		Baud:           serial.DefaultBaud(),
		Board:          board.Hosted.String(),
		EchoTimeout:    at.DefaultEchoTimeout,
		PowerOnTimeout: 10 * time.Second,
		Log:            Log{Level: "info", Format: "auto"},
		Net: Network{
			SearchAccessTechnology: nc.SearchAccessTechnology.String(),
			LTEMBand:               nc.LTEMBand,
			NBIoTBand:              nc.NBIoTBand,
			PdpContextID:           nc.PdpContextID,
			APN:                    nc.APN,
			DeregisterTimeout:      nc.DeregisterTimeout,
		},
	}
}

// Load returns the default configuration, updated from the file at path, if
// not empty, and then from the environment.
func Load(path string) (Config, error) {
	raw := map[string]any{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, errors.Wrapf(err, "parse %s", path)
		}
		if raw == nil {
			raw = map[string]any{}
		}
	}
	overlayEnv(raw, os.Environ())
	cfg := Default()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "yaml",
		Result:           &cfg,
	})
	if err != nil {
		return Config{}, errors.Wrap(err, "create decoder")
	}
	if err := dec.Decode(raw); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// overlayEnv sets the keys named by BG770A_ variables in raw.
func overlayEnv(raw map[string]any, environ []string) {
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		k, ok = strings.CutPrefix(k, EnvPrefix)
		if !ok || k == "" {
			continue
		}
		path := strings.Split(strings.ToLower(k), "__")
		m := raw
		for _, p := range path[:len(path)-1] {
			sub, ok := m[p].(map[string]any)
			if !ok {
				sub = map[string]any{}
				m[p] = sub
			}
			m = sub
		}
		m[path[len(path)-1]] = v
	}
}

// Validate checks the enumerated settings.
func (c Config) Validate() error {
	if _, err := board.ParseVersion(c.Board); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "auto", "text", "json":
	default:
		return errors.Errorf("unknown log format '%s'", c.Log.Format)
	}
	if _, err := c.Network(); err != nil {
		return err
	}
	if c.Baud <= 0 {
		return errors.Errorf("invalid baud rate %d", c.Baud)
	}
	return nil
}

// Level returns the log level.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return l, errors.Wrap(err, "log level")
	}
	return l, nil
}

// BoardVersion returns the board revision.
func (c Config) BoardVersion() board.Version {
	v, _ := board.ParseVersion(c.Board)
	return v
}

// Network returns the network configuration.
func (c Config) Network() (network.Config, error) {
	sat, err := network.ParseSearchAccessTechnology(c.Net.SearchAccessTechnology)
	if err != nil {
		return network.Config{}, err
	}
	return network.Config{
		SearchAccessTechnology: sat,
		LTEMBand:               c.Net.LTEMBand,
		NBIoTBand:              c.Net.NBIoTBand,
		PdpContextID:           c.Net.PdpContextID,
		APN:                    c.Net.APN,
		DeregisterTimeout:      c.Net.DeregisterTimeout,
	}, nil
}
