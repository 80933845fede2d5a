// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Rubberfate

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

// defaultConfigName is looked up in the user config directory when
// --config is not given.
const defaultConfigName = "mk312ctl.toml"

// fileConfig maps mk312ctl.toml keys to connection settings.
type fileConfig struct {
	Port     string `toml:"port"`
	Baud     int    `toml:"baud"`
	URL      string `toml:"url"`
	Username string `toml:"username"`
	Timeout  string `toml:"timeout"`
}

// applyFileConfig overlays TOML settings onto connection flags. Flags set
// on the command line keep their value; only unset flags pick up config
// file entries.
func applyFileConfig(*cobra.Command) error {
	path := configPath
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(dir, defaultConfigName)
		if _, err := os.Stat(path); err != nil {
			// No default config file, nothing to overlay.
			return nil
		}
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}

	flags := rootCmd.PersistentFlags()

	if meta.IsDefined("port") && !flags.Changed("port") {
		portName = strings.TrimSpace(raw.Port)
	}
	if meta.IsDefined("baud") && !flags.Changed("baud") {
		baudRate = raw.Baud
	}
	if meta.IsDefined("url") && !flags.Changed("url") {
		wsURL = strings.TrimSpace(raw.URL)
	}
	if meta.IsDefined("username") && !flags.Changed("username") {
		wsUsername = strings.TrimSpace(raw.Username)
	}
	if meta.IsDefined("timeout") && !flags.Changed("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return fmt.Errorf("load config %s: timeout: %w", path, err)
		}
		readTimeout = d
	}

	return nil
}
