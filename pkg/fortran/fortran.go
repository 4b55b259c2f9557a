// Copyright (c) 2019, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package fortran defines the build environment keys shared by the Fortran
// compiler tools and turns them into compile and link command lines.
package fortran

import (
	"fmt"
	"strings"

	"github.com/sylabs/mpif90-probe/internal/pkg/buildenv"
)

// Keys of the build environment used by Fortran tools
const (
	// FC is the path to the Fortran compiler
	FC = "FC"

	// FCName identifies the compiler family
	FCName = "FC_NAME"

	// FCFlags are the flags always given to the compiler
	FCFlags = "FCFLAGS"

	// FCFlagsDebug are the compiler flags added in debug mode
	FCFlagsDebug = "FCFLAGS_DEBUG"

	// FCSrcF is the prefix of the source file argument
	FCSrcF = "FC_SRC_F"

	// FCTgtF is the template of the compile-to-object arguments, the object is appended to its last element
	FCTgtF = "FC_TGT_F"

	// FCPathSt is the template used to add an include path
	FCPathSt = "FCPATH_ST"

	// FortranModFlag is the template of the module path arguments
	FortranModFlag = "FORTRANMODFLAG"

	// LinkFC is the linker, by default the compiler
	LinkFC = "LINK_FC"

	// FCLnkSrcF is the prefix of the link source arguments
	FCLnkSrcF = "FCLNK_SRC_F"

	// FCLnkTgtF is the template of the link output arguments
	FCLnkTgtF = "FCLNK_TGT_F"

	// LinkFlags are the flags always given to the linker
	LinkFlags = "LINKFLAGS"

	// ShlibFCFlags are the compiler flags for objects going into a shared library
	ShlibFCFlags = "shlib_FCFLAGS"

	// ShlibLinkFlags are the linker flags to create a shared library
	ShlibLinkFlags = "shlib_LINKFLAGS"
)

// Options tunes the command lines created from a build environment
type Options struct {
	// Debug adds the debug flags
	Debug bool

	// Shared adds the flags required to build a shared library
	Shared bool

	// Includes is the list of include directories
	Includes []string

	// ModDir is the directory where modules are read and written, if any
	ModDir string
}

// appendToTemplate copies a template and appends a string to its last element
func appendToTemplate(tmpl []string, s string) []string {
	if len(tmpl) == 0 {
		return []string{s}
	}
	args := append([]string{}, tmpl...)
	args[len(args)-1] += s
	return args
}

// IncludeArgs applies the include path template to each directory
func IncludeArgs(env *buildenv.Env, dirs []string) []string {
	st := env.GetString(FCPathSt)
	if st == "" {
		return nil
	}

	var args []string
	for _, d := range dirs {
		args = append(args, strings.Replace(st, "%s", d, 1))
	}
	return args
}

// ModuleArgs returns the arguments to use a given module directory
func ModuleArgs(env *buildenv.Env, dir string) []string {
	if dir == "" || !env.IsSet(FortranModFlag) {
		return nil
	}
	return appendToTemplate(env.GetList(FortranModFlag), dir)
}

// dropEmpty removes the empty arguments left by templates such as FC_SRC_F
func dropEmpty(args []string) []string {
	var cleaned []string
	for _, a := range args {
		if a != "" {
			cleaned = append(cleaned, a)
		}
	}
	return cleaned
}

// CompileCmd returns the command compiling a source file into an object file
func CompileCmd(env *buildenv.Env, src string, obj string, opts Options) ([]string, error) {
	if !env.IsSet(FC) {
		return nil, fmt.Errorf("%s is not set, the compiler was not configured", FC)
	}
	if src == "" || obj == "" {
		return nil, fmt.Errorf("invalid parameter(s)")
	}

	cmd := []string{env.GetString(FC)}
	if env.IsSet(FCFlags) {
		cmd = append(cmd, env.GetList(FCFlags)...)
	}
	if opts.Debug && env.IsSet(FCFlagsDebug) {
		cmd = append(cmd, env.GetList(FCFlagsDebug)...)
	}
	if opts.Shared && env.IsSet(ShlibFCFlags) {
		cmd = append(cmd, env.GetList(ShlibFCFlags)...)
	}
	cmd = append(cmd, IncludeArgs(env, opts.Includes)...)
	cmd = append(cmd, ModuleArgs(env, opts.ModDir)...)
	cmd = append(cmd, env.GetString(FCSrcF)+src)
	cmd = append(cmd, appendToTemplate(env.GetList(FCTgtF), obj)...)

	return dropEmpty(cmd), nil
}

// LinkCmd returns the command linking object files into a program or a shared library
func LinkCmd(env *buildenv.Env, objs []string, out string, opts Options) ([]string, error) {
	if !env.IsSet(LinkFC) {
		return nil, fmt.Errorf("%s is not set, the linker was not configured", LinkFC)
	}
	if len(objs) == 0 || out == "" {
		return nil, fmt.Errorf("invalid parameter(s)")
	}

	cmd := []string{env.GetString(LinkFC)}
	srcF := env.GetString(FCLnkSrcF)
	for _, o := range objs {
		cmd = append(cmd, srcF+o)
	}
	cmd = append(cmd, appendToTemplate(env.GetList(FCLnkTgtF), out)...)
	if env.IsSet(LinkFlags) {
		cmd = append(cmd, env.GetList(LinkFlags)...)
	}
	if opts.Shared && env.IsSet(ShlibLinkFlags) {
		cmd = append(cmd, env.GetList(ShlibLinkFlags)...)
	}

	return dropEmpty(cmd), nil
}
