// Copyright (c) 2019, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package mpif90

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sylabs/mpif90-probe/internal/pkg/buildenv"
	"github.com/sylabs/mpif90-probe/internal/pkg/configure"
	"github.com/sylabs/mpif90-probe/internal/pkg/probeerr"
)

// newContext creates a configuration context where the search path only includes
// a temporary directory, with a fake mpif90 in it if requested
func newContext(t *testing.T, env *buildenv.Env, withWrapper bool) (*configure.Context, string) {
	dir := t.TempDir()
	wrapper := filepath.Join(dir, wrapperBin)
	if withWrapper {
		err := os.WriteFile(wrapper, []byte("#!/bin/sh\nexit 0\n"), 0755)
		require.NoError(t, err)
		require.NoError(t, os.Chmod(wrapper, 0755))
	}
	return configure.New(env, []string{"PATH=" + dir}), wrapper
}

func requireSameEnv(t *testing.T, expected *buildenv.Env, actual *buildenv.Env) {
	require.Equal(t, expected.Keys(), actual.Keys())
	for _, k := range expected.Keys() {
		assert.Equal(t, expected.IsList(k), actual.IsList(k), k)
		assert.Equal(t, expected.GetList(k), actual.GetList(k), k)
	}
}

func TestDetect(t *testing.T) {
	ctx, wrapper := newContext(t, nil, true)

	err := Detect(ctx)
	require.NoError(t, err)

	env := ctx.Env
	assert.Equal(t, wrapper, env.GetString("FC"))
	assert.Equal(t, "MPIF90", env.GetString("FC_NAME"))
	assert.Equal(t, wrapper, env.GetString("LINK_FC"))

	strValues := map[string]string{
		"FC_SRC_F":    "",
		"FCPATH_ST":   "-I%s",
		"FCLNK_SRC_F": "",
	}
	for k, v := range strValues {
		assert.False(t, env.IsList(k), k)
		assert.Equal(t, v, env.GetString(k), k)
	}

	listValues := map[string][]string{
		"FC_TGT_F":        {"-c", "-o", ""},
		"FORTRANMODFLAG":  {"-M", ""},
		"FCLNK_TGT_F":     {"-o", ""},
		"FCFLAGS_DEBUG":   {"-Werror"},
		"shlib_FCFLAGS":   {"-fPIC"},
		"shlib_LINKFLAGS": {"-shared"},
	}
	for k, v := range listValues {
		assert.True(t, env.IsList(k), k)
		assert.Equal(t, v, env.GetList(k), k)
	}

	assert.Len(t, env.Keys(), 12)
}

func TestDetectNotFound(t *testing.T) {
	env := buildenv.New()
	env.SetString("CC", "mpicc")
	env.SetList("FCFLAGS", []string{"-O2"})
	before := env.Copy()

	ctx, _ := newContext(t, env, false)
	err := Detect(ctx)
	require.Error(t, err)
	assert.True(t, probeerr.IsFatal(err))
	assert.True(t, errors.Is(err, probeerr.ErrToolNotFound))
	assert.Contains(t, err.Error(), "mpif90 not found")

	requireSameEnv(t, before, ctx.Env)
}

func TestDetectKeepsLinker(t *testing.T) {
	tests := []struct {
		name     string
		preset   func(env *buildenv.Env)
		expected string
	}{
		{
			name:     "unset",
			preset:   func(env *buildenv.Env) {},
			expected: "",
		},
		{
			name:     "empty",
			preset:   func(env *buildenv.Env) { env.SetString("LINK_FC", "") },
			expected: "",
		},
		{
			name:     "preset",
			preset:   func(env *buildenv.Env) { env.SetString("LINK_FC", "mpicc") },
			expected: "mpicc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := buildenv.New()
			tt.preset(env)
			ctx, wrapper := newContext(t, env, true)

			require.NoError(t, Detect(ctx))

			expected := tt.expected
			if expected == "" {
				expected = wrapper
			}
			assert.Equal(t, expected, ctx.Env.GetString("LINK_FC"))
			assert.Equal(t, wrapper, ctx.Env.GetString("FC"))
		})
	}
}

func TestSetFlagsIdempotent(t *testing.T) {
	env := buildenv.New()
	env.SetString("FC", "/usr/bin/mpif90")

	SetFlags(env)
	first := env.Copy()
	SetFlags(env)

	requireSameEnv(t, first, env)
	assert.Equal(t, "/usr/bin/mpif90", env.GetString("LINK_FC"))
	assert.Equal(t, []string{"-Werror"}, env.GetList("FCFLAGS_DEBUG"))
	assert.Equal(t, []string{"-shared"}, env.GetList("shlib_LINKFLAGS"))
}

func TestSetFlagsPresetLinker(t *testing.T) {
	env := buildenv.New()
	env.SetString("FC", "/usr/bin/mpif90")
	env.SetString("LINK_FC", "foo")

	SetFlags(env)
	assert.Equal(t, "foo", env.GetString("LINK_FC"))
}

func TestRegistered(t *testing.T) {
	assert.Contains(t, configure.Tools(), ToolName)

	ctx, wrapper := newContext(t, nil, true)
	require.NoError(t, ctx.CheckTool(ToolName))
	assert.Equal(t, wrapper, ctx.Env.GetString("FC"))
	assert.Equal(t, CompilerName, ctx.Env.GetString("FC_NAME"))
}

func TestDetectIgnoresOtherCompiler(t *testing.T) {
	ctx, wrapper := newContext(t, nil, false)
	dir := filepath.Dir(wrapper)
	gfortran := filepath.Join(dir, "gfortran")
	require.NoError(t, os.WriteFile(gfortran, []byte("#!/bin/sh\nexit 0\n"), 0755))
	require.NoError(t, os.Chmod(gfortran, 0755))

	for _, fc := range []string{"gfortran", gfortran} {
		ctx.Environ = []string{"PATH=" + dir, "FC=" + fc}
		err := Detect(ctx)
		require.Error(t, err, fc)
		assert.True(t, probeerr.IsFatal(err))
		assert.True(t, errors.Is(err, probeerr.ErrToolNotFound))
		assert.Empty(t, ctx.Env.Keys())
	}
}
