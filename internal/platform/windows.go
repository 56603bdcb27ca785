// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"os"
	"path/filepath"
)

// WindowsPlatform implements Platform interface for Windows systems
type WindowsPlatform struct{}

// GetConfigDir returns the Windows-appropriate configuration directory
func (w *WindowsPlatform) GetConfigDir() string {
	if dir := os.Getenv("CENSOR_SCAN_CONFIG_DIR"); dir != "" {
		return dir
	}

	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "censor-scan")
	}

	if userProfile := os.Getenv("USERPROFILE"); userProfile != "" {
		return filepath.Join(userProfile, ".censor-scan")
	}

	return filepath.Join(".", ".censor-scan")
}

// Volumes probes every drive letter and returns the roots that answer.
// Drives without media (empty card readers, disconnected network shares)
// fail the stat and are left out.
func (w *WindowsPlatform) Volumes() ([]string, error) {
	var roots []string
	for letter := 'A'; letter <= 'Z'; letter++ {
		root := string(letter) + `:\`
		info, err := statFn(root)
		if err != nil || !info.IsDir() {
			continue
		}
		roots = append(roots, root)
	}
	if len(roots) == 0 {
		return nil, ErrNoVolumes
	}
	return roots, nil
}
