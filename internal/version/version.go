// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X censor-scan/internal/version.Version=..." by release builds
var (
	Version   = "0.0.0-development"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info is the one-line banner printed by --version. Commit and build time
// fall back to the VCS stamp the go toolchain embeds when ldflags left them
// unset.
func Info() string {
	commit, built := GitCommit, BuildDate
	if bi, ok := debug.ReadBuildInfo(); ok {
		commit, built = fromBuildInfo(bi, commit, built)
	}
	return fmt.Sprintf("censor-scan %s (commit: %s, built: %s, go: %s, platform: %s/%s)",
		Version, commit, built, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func fromBuildInfo(bi *debug.BuildInfo, commit, built string) (string, string) {
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && commit == "unknown":
			commit = s.Value
			if len(commit) > 12 {
				commit = commit[:12]
			}
		case s.Key == "vcs.time" && built == "unknown":
			built = s.Value
		}
	}
	return commit, built
}

// Short is the bare version, shown in the console header
func Short() string {
	return Version
}
