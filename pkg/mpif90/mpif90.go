// Copyright (c) 2019, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package mpif90 configures a build environment for the mpif90 MPI Fortran
// compiler wrapper. Importing the package registers the "mpif90" tool.
package mpif90

import (
	"log"

	"github.com/sylabs/mpif90-probe/internal/pkg/buildenv"
	"github.com/sylabs/mpif90-probe/internal/pkg/configure"
	"github.com/sylabs/mpif90-probe/pkg/fortran"
)

const (
	// ToolName is the name under which the tool is registered
	ToolName = "mpif90"

	// CompilerName is the identifier of the compiler family stored under FC_NAME
	CompilerName = "MPIF90"

	wrapperBin = "mpif90"
)

func init() {
	configure.RegisterTool(ToolName, Detect)
}

// Find looks up the mpif90 wrapper and saves its path under FC. The build
// environment is left untouched when the wrapper cannot be found.
func Find(ctx *configure.Context) error {
	fc, err := ctx.FindProgram(wrapperBin, fortran.FC)
	if err != nil {
		return ctx.Fatal("mpif90 not found", err)
	}

	ctx.Env.SetString(fortran.FCName, CompilerName)
	ctx.Env.SetString(fortran.FC, fc)
	return nil
}

// SetFlags sets the flags used to compile and link with mpif90. LINK_FC is only
// set when it is not already defined.
func SetFlags(env *buildenv.Env) {
	env.SetString(fortran.FCName, CompilerName)

	env.SetString(fortran.FCSrcF, "")
	env.SetList(fortran.FCTgtF, []string{"-c", "-o", ""})
	env.SetString(fortran.FCPathSt, "-I%s")
	env.SetList(fortran.FortranModFlag, []string{"-M", ""})

	// linker
	if !env.IsSet(fortran.LinkFC) {
		env.SetString(fortran.LinkFC, env.GetString(fortran.FC))
	} else {
		log.Printf("-> %s already set to %s, keeping it", fortran.LinkFC, env.GetString(fortran.LinkFC))
	}
	env.SetString(fortran.FCLnkSrcF, "")
	env.SetList(fortran.FCLnkTgtF, []string{"-o", ""})

	env.SetList(fortran.FCFlagsDebug, []string{"-Werror"})

	// shared libraries, the flags are the ones of ELF platforms
	env.SetList(fortran.ShlibFCFlags, []string{"-fPIC"})
	env.SetList(fortran.ShlibLinkFlags, []string{"-shared"})
}

// Detect finds mpif90 and then sets the associated flags. No flag is set if
// mpif90 cannot be found.
func Detect(ctx *configure.Context) error {
	err := Find(ctx)
	if err != nil {
		return err
	}

	SetFlags(ctx.Env)
	return nil
}
