// Copyright (c) 2019, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gvallee/go_util/pkg/util"
	"github.com/gvallee/kv/pkg/kv"
	"github.com/sylabs/mpif90-probe/internal/pkg/buildenv"
	"github.com/sylabs/mpif90-probe/internal/pkg/configure"
	"github.com/sylabs/mpif90-probe/internal/pkg/sys"
	"github.com/sylabs/mpif90-probe/pkg/fortran"

	// Tools available for configuration
	_ "github.com/sylabs/mpif90-probe/pkg/mpif90"
)

func loadEnv(cacheFile string) (*buildenv.Env, error) {
	if cacheFile == "" || !util.FileExists(cacheFile) {
		return buildenv.New(), nil
	}

	log.Printf("-> Loading build environment from %s", cacheFile)
	return buildenv.Load(cacheFile)
}

func showCommands(env *buildenv.Env, out io.Writer) error {
	compileCmd, err := fortran.CompileCmd(env, "hello.f90", "hello.o", fortran.Options{})
	if err != nil {
		return fmt.Errorf("unable to get the compile command: %s", err)
	}
	linkCmd, err := fortran.LinkCmd(env, []string{"hello.o"}, "hello", fortran.Options{})
	if err != nil {
		return fmt.Errorf("unable to get the link command: %s", err)
	}
	sharedCompileCmd, err := fortran.CompileCmd(env, "hello.f90", "hello.o", fortran.Options{Shared: true})
	if err != nil {
		return fmt.Errorf("unable to get the compile command: %s", err)
	}
	sharedLinkCmd, err := fortran.LinkCmd(env, []string{"hello.o"}, "libhello.so", fortran.Options{Shared: true})
	if err != nil {
		return fmt.Errorf("unable to get the link command: %s", err)
	}

	fmt.Fprintf(out, "\nCompile: %s\n", strings.Join(compileCmd, " "))
	fmt.Fprintf(out, "Link: %s\n", strings.Join(linkCmd, " "))
	fmt.Fprintf(out, "Compile (shared): %s\n", strings.Join(sharedCompileCmd, " "))
	fmt.Fprintf(out, "Link (shared): %s\n", strings.Join(sharedLinkCmd, " "))
	return nil
}

// run configures the requested tool, displays the resulting build environment
// and saves it
func run(sysCfg *sys.Config, environ []string, out io.Writer) error {
	env, err := loadEnv(sysCfg.CacheFile)
	if err != nil {
		return err
	}

	ctx := configure.New(env, environ)
	ctx.SearchPaths = sysCfg.SearchPaths

	err = ctx.CheckTool(sysCfg.Tool)
	if err != nil {
		return err
	}

	for _, line := range kv.ToStringSlice(ctx.Env.ToKV()) {
		fmt.Fprintln(out, line)
	}

	if sysCfg.Show {
		err = showCommands(ctx.Env, out)
		if err != nil {
			return err
		}
	}

	if sysCfg.CacheFile != "" {
		err = ctx.Env.Store(sysCfg.CacheFile)
		if err != nil {
			return fmt.Errorf("unable to save the build environment: %s", err)
		}
	}

	return nil
}

func main() {
	var sysCfg sys.Config

	cacheFile := flag.String("cache", sys.DefaultCacheFile, "Path to the file where the build environment is loaded from and saved to, empty to disable")
	tool := flag.String("tool", sys.DefaultTool, "Tool to configure (available: "+strings.Join(configure.Tools(), ", ")+")")
	searchPaths := flag.String("path", "", "Additional directories where programs are searched, separated by '"+string(os.PathListSeparator)+"'")
	verbose := flag.Bool("v", false, "Enable verbose mode")
	show := flag.Bool("show", false, "Display sample compile and link commands")
	help := flag.Bool("h", false, "Help message")

	flag.Parse()

	cmdName := filepath.Base(os.Args[0])
	if *help {
		fmt.Printf("%s is a command line tool to configure a build environment for a Fortran compiler", cmdName)
		fmt.Println("\nUsage:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	sysCfg.CacheFile = *cacheFile
	sysCfg.Tool = *tool
	sysCfg.SearchPaths = sys.ParseSearchPaths(*searchPaths)
	sysCfg.Verbose = *verbose
	sysCfg.Show = *show

	// Log messages always go to the log file and also appear on stdout in verbose mode
	logFile := util.OpenLogFile(sys.LogName)
	if sysCfg.Verbose {
		nultiWriters := io.MultiWriter(os.Stdout, logFile)
		log.SetOutput(nultiWriters)
	} else {
		log.SetOutput(logFile)
	}

	err := run(&sysCfg, os.Environ(), os.Stdout)
	if err != nil {
		log.Printf("configuration failed: %s", err)
		fmt.Fprintf(os.Stderr, "%s: configuration failed: %s\n", cmdName, err)
		os.Exit(1)
	}
}
