// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errors defines the error handling used throughout DCP.
package errors

import (
	"bytes"
	"fmt"
	"runtime"

	"github.com/NationalSecurityAgency/DCP/log"
)

// Error is the type that implements the error interface.
// It contains a number of fields, each of different type.
// An Error value may leave some values unset.
type Error struct {
	// DestPath is the destination-absolute path of the item being
	// processed, if known.
	DestPath string
	// Op is the operation being performed, usually the function
	// or syscall being invoked (open, mkdirat, index-lookup, ...).
	Op string
	// Class is the class of error, such as permission failure,
	// or Other if its class is unknown or irrelevant.
	Class Class
	// Err is the underlying error that triggered this one, if any.
	Err error
}

var _ error = (*Error)(nil)

// Class defines the kind of error this is.
type Class uint8

// The classes of error recognized by DCP.
const (
	Other      Class = iota // Unclassified error. Not printed in the error message.
	Invalid                 // Invalid operation for this type of item.
	Permission              // Permission denied.
	Syntax                  // Malformed input such as corrupt hex or JSON.
	IO                      // External I/O error such as a read/write failure.
	Exist                   // Item exists but should not.
	NotExist                // Item does not exist.
)

func (c Class) String() string {
	switch c {
	case Invalid:
		return "invalid operation"
	case Permission:
		return "permission denied"
	case Syntax:
		return "syntax error"
	case IO:
		return "I/O error"
	case Exist:
		return "item already exists"
	case NotExist:
		return "item does not exist"
	case Other:
		return "other error"
	}
	return "unknown error class"
}

// E builds an error value from its arguments.
// The type of each argument determines its meaning.
// Only one argument of each type may be present (if
// there is more than one, the last one wins).
//
// The types are:
//
//	string
//		If it begins with '/', the destination-absolute path of the
//		item being processed. Otherwise, the operation being
//		performed (open, mkdirat, index-lookup, ...).
//	errors.Class
//		The class of error, such as permission failure.
//	error
//		The underlying error that triggered this one.
//
// If the error is printed, only those items that have been
// set to non-zero values will appear in the result.
func E(args ...interface{}) error {
	if len(args) == 0 {
		return nil
	}
	e := &Error{}
	for _, arg := range args {
		switch arg := arg.(type) {
		case string:
			if len(arg) > 0 && arg[0] == '/' {
				e.DestPath = arg
			} else {
				e.Op = arg
			}
		case Class:
			e.Class = arg
		case error:
			e.Err = arg
		default:
			_, file, line, _ := runtime.Caller(1)
			log.Error.Printf("errors.E: bad call from %s:%d: %v", file, line, args)
			return fmt.Errorf("unknown type %T, value %v in error call", arg, arg)
		}
	}
	return e
}

// pad appends str to the buffer if the buffer already has some data.
func pad(b *bytes.Buffer, str string) {
	if b.Len() == 0 {
		return
	}
	b.WriteString(str)
}

func (e *Error) Error() string {
	b := new(bytes.Buffer)
	if e.DestPath != "" {
		b.WriteString(e.DestPath)
	}
	if e.Op != "" {
		pad(b, ": ")
		b.WriteString(e.Op)
	}
	if e.Class != 0 {
		pad(b, ": ")
		b.WriteString(e.Class.String())
	}
	if e.Err != nil {
		// Indent on new line if we are cascading DCP errors.
		if _, ok := e.Err.(*Error); ok {
			pad(b, ":\n\t")
		} else {
			pad(b, ": ")
		}
		b.WriteString(e.Err.Error())
	}
	if b.Len() == 0 {
		return "no error"
	}
	return b.String()
}

// Unwrap lets errors.Is/errors.As from the standard library see through
// an *Error to its underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether err is an *Error of the given class, following
// cascaded causes until one with a non-Other class is found.
func Is(class Class, err error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	if e.Class != Other {
		return e.Class == class
	}
	if e.Err != nil {
		return Is(class, e.Err)
	}
	return false
}
