// Copyright (c) 2019, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

/*
 * configure is a package that provides the context of the configuration phase of a
 * build: the build environment being populated, the host environment used to look
 * programs up and the way to abort the configuration.
 */
package configure

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/sylabs/mpif90-probe/internal/pkg/buildenv"
	"github.com/sylabs/mpif90-probe/internal/pkg/probeerr"
)

// Context gathers everything a tool needs to configure itself
type Context struct {
	// Env is the build environment populated by the tools
	Env *buildenv.Env

	// Environ is the host environment, in the "key=value" form of os.Environ()
	Environ []string

	// SearchPaths is a list of directories searched after the ones from PATH
	SearchPaths []string
}

// New creates a configuration context. A nil environment is replaced by an empty one.
func New(env *buildenv.Env, environ []string) *Context {
	if env == nil {
		env = buildenv.New()
	}
	return &Context{
		Env:     env,
		Environ: environ,
	}
}

// Getenv returns the value of a variable from the host environment. When a variable
// is defined more than once, the last definition wins.
func (c *Context) Getenv(name string) string {
	val := ""
	for _, e := range c.Environ {
		envEntry := strings.SplitN(e, "=", 2)
		if len(envEntry) == 2 && envEntry[0] == name {
			val = envEntry[1]
		}
	}
	return val
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0111 != 0
}

func (c *Context) searchDirs() []string {
	var dirs []string
	for _, d := range filepath.SplitList(c.Getenv("PATH")) {
		if d == "" {
			// An empty PATH entry refers to the current directory
			d = "."
		}
		dirs = append(dirs, d)
	}
	return append(dirs, c.SearchPaths...)
}

func (c *Context) lookPath(bin string) (string, error) {
	if strings.ContainsRune(bin, filepath.Separator) {
		if isExecutable(bin) {
			return filepath.Abs(bin)
		}
		return "", fmt.Errorf("%s is not an executable: %w", bin, probeerr.ErrToolNotFound)
	}

	for _, d := range c.searchDirs() {
		fullPath := filepath.Join(d, bin)
		if isExecutable(fullPath) {
			return filepath.Abs(fullPath)
		}
	}

	return "", fmt.Errorf("%s not in search path: %w", bin, probeerr.ErrToolNotFound)
}

// FindProgram looks up a program and returns its absolute path. If envVar is
// not empty, the host environment variable of the same name can select a specific
// copy of the program (a path or a name whose base name is the program name) and
// the result is saved under envVar in the build environment. Any other value of
// the variable is ignored. The build environment is not modified on failure.
func (c *Context) FindProgram(name string, envVar string) (string, error) {
	bin := name
	if envVar != "" {
		if override := c.Getenv(envVar); override != "" {
			if filepath.Base(override) == name {
				log.Printf("-> %s set in the environment, using %s", envVar, override)
				bin = override
			} else {
				log.Printf("-> %s set in the environment to %s which is not %s, ignoring it", envVar, override, name)
			}
		}
	}

	path, err := c.lookPath(bin)
	if err != nil {
		log.Printf("* Checking for program %s\tfail", name)
		return "", err
	}
	log.Printf("* Checking for program %s\tpass (%s)", name, path)

	if envVar != "" {
		c.Env.SetString(envVar, path)
	}

	return path, nil
}

// Fatal returns the error used to abort the configuration phase
func (c *Context) Fatal(msg string, err error) error {
	return &probeerr.FatalError{Msg: msg, Err: err}
}
