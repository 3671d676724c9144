// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package patcherr defines the error classes every patch failure belongs to.
package patcherr

import (
	"fmt"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🏷️ Error classes. Every failure surfaced by the engine wraps exactly one.
var (
	ErrSpecShape         = errors.Base("malformed specification")
	ErrCardinality       = errors.Base("unexpected match count")
	ErrParse             = errors.Base("source is not structurally valid")
	ErrUnknownOperation  = errors.Base("unknown operation kind")
	ErrDelimiterNotFound = errors.Base("no match after start")
)

// 🎯 OperationError pins a failure to the file, operation and field that caused it
type OperationError struct {
	Path  string // target file
	Index int    // position of the operation in its FileEdit
	Kind  string // op kind, e.g. insert_after
	Field string // spec field that failed, may be empty
	Err   error
}

func (e *OperationError) Error() string {
	var b strings.Builder
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "op #%d", e.Index)
	if e.Kind != "" {
		fmt.Fprintf(&b, " (%s)", e.Kind)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " field %q", e.Field)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// 🔧 Field returns an error for a specific spec field, wrapping class and cause
func Field(field string, class error, format string, args ...any) error {
	return &fieldError{field: field, err: errors.Errorf("%w: "+format, append([]any{class}, args...)...)}
}

// 🔧 WithField attaches a spec field name to an existing error
func WithField(field string, err error) error {
	if err == nil {
		return nil
	}
	return &fieldError{field: field, err: err}
}

type fieldError struct {
	field string
	err   error
}

func (e *fieldError) Error() string { return e.err.Error() }
func (e *fieldError) Unwrap() error { return e.err }

// 🔍 FieldOf returns the field name carried by err, if any
func FieldOf(err error) string {
	var fe *fieldError
	if errors.As(err, &fe) {
		return fe.field
	}
	return ""
}

// 📦 Wrap attaches operation context; an existing OperationError is kept as is
func Wrap(err error, path string, index int, kind string) error {
	if err == nil {
		return nil
	}
	var oe *OperationError
	if errors.As(err, &oe) {
		return err
	}
	return &OperationError{
		Path:  path,
		Index: index,
		Kind:  kind,
		Field: FieldOf(err),
		Err:   err,
	}
}

// 🏷️ Class returns the name of the error class err belongs to
func Class(err error) string {
	switch {
	case errors.Is(err, ErrSpecShape):
		return "SpecShapeError"
	case errors.Is(err, ErrCardinality):
		return "CardinalityError"
	case errors.Is(err, ErrParse):
		return "ParseError"
	case errors.Is(err, ErrUnknownOperation):
		return "UnknownOperationError"
	case errors.Is(err, ErrDelimiterNotFound):
		return "DelimiterNotFoundError"
	default:
		return ""
	}
}
