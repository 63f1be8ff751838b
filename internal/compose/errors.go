// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package compose

import (
	"errors"
	"fmt"
)

// Validation messages returned to clients verbatim.
const (
	MsgNoPrimaryInput = "at least one of audio or video required"
	MsgMixedRejected  = "audio and video cannot be combined"
)

// ValidationError reports an unusable combination of inputs. It is always
// returned before the encoding engine is invoked.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// InternalError reports an inconsistency inside the core, such as an asset
// set that does not carry the file a selected pipeline needs.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *InternalError) Unwrap() error { return e.Err }

// ErrMissingInput is wrapped by InternalError when a required FileRef is nil.
var ErrMissingInput = errors.New("missing input file")

// ErrOutputExists is wrapped by InternalError when a fresh output path is taken.
var ErrOutputExists = errors.New("output path already exists")

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsInternal reports whether err is (or wraps) an InternalError.
func IsInternal(err error) bool {
	var v *InternalError
	return errors.As(err, &v)
}
