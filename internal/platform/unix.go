// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// UnixPlatform implements Platform interface for Unix-like systems (Linux, macOS, etc.)
type UnixPlatform struct{}

// GetConfigDir returns the Unix-appropriate configuration directory
func (u *UnixPlatform) GetConfigDir() string {
	if dir := os.Getenv("CENSOR_SCAN_CONFIG_DIR"); dir != "" {
		return dir
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "censor-scan")
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "censor-scan")
}

// Volumes returns the filesystem root. Every mounted volume hangs below it.
func (u *UnixPlatform) Volumes() ([]string, error) {
	info, err := statFn("/")
	if err != nil {
		return nil, fmt.Errorf("stat filesystem root: %w", err)
	}
	if !info.IsDir() {
		return nil, ErrNoVolumes
	}
	return []string{"/"}, nil
}
