// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"errors"
	"os"
	"runtime"
)

// ErrNoVolumes is returned when no storage volume is ready for scanning
var ErrNoVolumes = errors.New("no ready volumes found")

// statFn is swapped in tests
var statFn = os.Stat

// Platform defines the interface for platform-specific operations
type Platform interface {
	// GetConfigDir returns the directory holding the user's settings file
	GetConfigDir() string
	// Volumes returns the root directory of every ready storage volume
	Volumes() ([]string, error)
}

// GetPlatform returns the appropriate platform implementation for the current OS
func GetPlatform() Platform {
	switch runtime.GOOS {
	case "windows":
		return &WindowsPlatform{}
	default:
		return &UnixPlatform{}
	}
}

// Volumes returns the ready volume roots of the current platform
func Volumes() ([]string, error) {
	return GetPlatform().Volumes()
}
