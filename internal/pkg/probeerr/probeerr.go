// Copyright (c) 2019, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package probeerr

import "errors"

// ErrToolNotFound is the error returned when a program required by a tool cannot be located
var ErrToolNotFound = errors.New("tool not found")

// ErrUnknownTool is the error returned when a tool that is not registered is requested
var ErrUnknownTool = errors.New("unknown tool")

// FatalError is the error that terminates the configuration phase. It is never
// retried nor downgraded to a warning.
type FatalError struct {
	// Msg is the human-readable message reported to the user
	Msg string

	// Err is the underlying cause, if any
	Err error
}

func (e *FatalError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// IsFatal checks whether an error aborts the configuration phase
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}
