// Copyright (c) 2019, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package sys

import (
	"path/filepath"
)

// Config captures the settings of a configuration run
type Config struct {
	CacheFile   string   // Path to the file where the build environment is loaded from and saved to
	Tool        string   // Name of the tool to configure
	SearchPaths []string // Directories searched for programs after the ones from PATH
	Verbose     bool     // Verbose mode is active/inactive
	Show        bool     // Display sample compile and link commands
}

const (
	// DefaultTool is the tool configured when none is specified
	DefaultTool = "mpif90"

	// DefaultCacheFile is the name of the file where the build environment is saved by default
	DefaultCacheFile = "fcconf.cache"

	// LogName is the name of the log file of the tool
	LogName = "fcconf"
)

// ParseSearchPaths splits a list of directories separated by the OS list separator,
// ignoring empty entries
func ParseSearchPaths(paths string) []string {
	var dirs []string
	for _, d := range filepath.SplitList(paths) {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}
