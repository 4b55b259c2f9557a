// Copyright (c) 2019, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

/*
 * buildenv is a package that provides the build environment shared by all the
 * tools of a configuration session: a set of keys, each of them associated to
 * a string or to an ordered list of strings.
 */
package buildenv

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/gvallee/kv/pkg/kv"
)

type value struct {
	str    string
	list   []string
	isList bool
}

// Env is the build environment, i.e., the key/value store carrying the configuration
// of a build session
type Env struct {
	values map[string]value
}

// New returns an empty build environment
func New() *Env {
	return &Env{values: make(map[string]value)}
}

// GetString returns the value of a key as a string. List values are joined with
// a space and unset keys return an empty string.
func (e *Env) GetString(key string) string {
	v, ok := e.values[key]
	if !ok {
		return ""
	}
	if v.isList {
		return strings.Join(v.list, " ")
	}
	return v.str
}

// GetList returns the value of a key as a list of strings. A string value is
// returned as a list with a single element and unset keys return nil.
func (e *Env) GetList(key string) []string {
	v, ok := e.values[key]
	if !ok {
		return nil
	}
	if !v.isList {
		return []string{v.str}
	}
	return append([]string{}, v.list...)
}

// SetString sets a key to a string value, overwriting any previous value
func (e *Env) SetString(key string, val string) {
	e.values[key] = value{str: val}
}

// SetList sets a key to a list value, overwriting any previous value
func (e *Env) SetList(key string, vals []string) {
	e.values[key] = value{list: append([]string{}, vals...), isList: true}
}

// IsSet checks whether a key holds a non-empty string or a non-empty list
func (e *Env) IsSet(key string) bool {
	v, ok := e.values[key]
	if !ok {
		return false
	}
	if v.isList {
		return len(v.list) > 0
	}
	return v.str != ""
}

// IsList checks whether a key holds a list
func (e *Env) IsList(key string) bool {
	return e.values[key].isList
}

// Keys returns the sorted list of keys defined in the environment
func (e *Env) Keys() []string {
	keys := make([]string, 0, len(e.values))
	for k := range e.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Copy returns a deep copy of the environment
func (e *Env) Copy() *Env {
	newEnv := New()
	for k, v := range e.values {
		if v.isList {
			newEnv.SetList(k, v.list)
		} else {
			newEnv.SetString(k, v.str)
		}
	}
	return newEnv
}

// quote returns the Go quoted form of a string in which '=' and '#' are escaped
// since the key/value file format splits lines on '=' and ignores lines with '#'
func quote(s string) string {
	q := strconv.Quote(s)
	q = strings.Replace(q, "=", `\x3d`, -1)
	return strings.Replace(q, "#", `\x23`, -1)
}

func (e *Env) encode(key string) string {
	v := e.values[key]
	if !v.isList {
		return quote(v.str)
	}

	var elts []string
	for _, s := range v.list {
		elts = append(elts, quote(s))
	}
	return "[" + strings.Join(elts, ", ") + "]"
}

func decode(str string) (value, error) {
	if !strings.HasPrefix(str, "[") {
		s, err := strconv.Unquote(str)
		if err != nil {
			return value{}, fmt.Errorf("invalid string value %s: %w", str, err)
		}
		return value{str: s}, nil
	}

	if !strings.HasSuffix(str, "]") {
		return value{}, fmt.Errorf("unterminated list value %s", str)
	}

	v := value{list: []string{}, isList: true}
	rest := strings.TrimSpace(str[1 : len(str)-1])
	for rest != "" {
		q, err := strconv.QuotedPrefix(rest)
		if err != nil {
			return value{}, fmt.Errorf("invalid list value %s: %w", str, err)
		}
		s, err := strconv.Unquote(q)
		if err != nil {
			return value{}, fmt.Errorf("invalid list element %s: %w", q, err)
		}
		v.list = append(v.list, s)

		rest = strings.TrimSpace(rest[len(q):])
		if rest == "" {
			break
		}
		if !strings.HasPrefix(rest, ",") {
			return value{}, fmt.Errorf("missing separator in list value %s", str)
		}
		rest = strings.TrimSpace(rest[1:])
	}

	return v, nil
}

// ToKV converts the environment into a sorted slice of key/value pairs, values
// being encoded so they can be saved in a configuration file
func (e *Env) ToKV() []kv.KV {
	var kvs []kv.KV
	for _, k := range e.Keys() {
		kvs = append(kvs, kv.KV{Key: k, Value: e.encode(k)})
	}
	return kvs
}

// checkKey makes sure a key survives a save in a key/value configuration file,
// where lines are split on '=', lines with '#' are skipped and keys are trimmed
func checkKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty key")
	}
	if strings.ContainsAny(key, "=#\n\r") {
		return fmt.Errorf("key %q contains a character that cannot be saved", key)
	}
	if strings.TrimSpace(key) != key {
		return fmt.Errorf("key %q has leading or trailing spaces", key)
	}
	return nil
}

// Store saves the environment in a key/value configuration file. Nothing is
// written if a key cannot be saved.
func (e *Env) Store(path string) error {
	for _, k := range e.Keys() {
		err := checkKey(k)
		if err != nil {
			return fmt.Errorf("unable to save build environment in %s: %w", path, err)
		}
	}

	log.Printf("-> Saving build environment in %s", path)
	data := kv.ToStringSlice(e.ToKV())
	err := os.WriteFile(path, []byte(strings.Join(data, "\n")+"\n"), 0644)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Load reads a build environment previously saved with Store
func Load(path string) (*Env, error) {
	kvs, err := kv.LoadKeyValueConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load key/value from %s: %w", path, err)
	}

	e := New()
	for _, entry := range kvs {
		v, err := decode(entry.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid entry for key %s in %s: %w", entry.Key, path, err)
		}
		e.values[entry.Key] = v
	}

	return e, nil
}
