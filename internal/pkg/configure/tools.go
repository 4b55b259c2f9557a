// Copyright (c) 2019, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package configure

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/sylabs/mpif90-probe/internal/pkg/probeerr"
)

// DetectFunc is the entry point of a tool, it populates the build environment of
// the context or returns an error
type DetectFunc func(ctx *Context) error

var (
	toolsMu sync.RWMutex
	tools   = make(map[string]DetectFunc)
)

// RegisterTool makes a tool available under a given name. It is meant to be called
// from the init() function of the package implementing the tool and panics if
// the name is already used.
func RegisterTool(name string, detect DetectFunc) {
	toolsMu.Lock()
	defer toolsMu.Unlock()

	if detect == nil {
		panic("configure: nil detect function for tool " + name)
	}
	if _, ok := tools[name]; ok {
		panic("configure: tool " + name + " registered twice")
	}
	tools[name] = detect
}

// Tools returns the sorted names of all the registered tools
func Tools() []string {
	toolsMu.RLock()
	defer toolsMu.RUnlock()

	var names []string
	for n := range tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// CheckTool runs the detection of a registered tool
func (c *Context) CheckTool(name string) error {
	toolsMu.RLock()
	detect, ok := tools[name]
	toolsMu.RUnlock()

	if !ok {
		return c.Fatal(fmt.Sprintf("tool %s is not available", name), probeerr.ErrUnknownTool)
	}

	log.Printf("- Checking tool %s...", name)
	return detect(c)
}
