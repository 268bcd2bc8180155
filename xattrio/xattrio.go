// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xattrio lists and reads the extended attributes of a filesystem
// object without following symlinks, the source side of the xattr record
// sink described alongside the entry record stream.
package xattrio

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Attr is one extended attribute name/value pair.
type Attr struct {
	Name  string
	Value []byte
}

// List returns every extended attribute attached to path. A filesystem
// that doesn't support extended attributes (ENOTSUP) reports an empty
// list, not an error, since absence of xattr support is the common case,
// not a failure worth aborting a copy over.
func List(path string) ([]Attr, error) {
	names, err := listNames(path)
	if err != nil {
		if err == unix.ENOTSUP || err == unix.EOPNOTSUPP {
			return nil, nil
		}
		return nil, fmt.Errorf("xattrio: list %q: %w", path, err)
	}

	attrs := make([]Attr, 0, len(names))
	for _, name := range names {
		value, err := getValue(path, name)
		if err != nil {
			return nil, fmt.Errorf("xattrio: get %q on %q: %w", name, path, err)
		}
		attrs = append(attrs, Attr{Name: name, Value: value})
	}
	return attrs, nil
}

func listNames(path string) ([]string, error) {
	size, err := unix.Llistxattr(path, nil)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, nil
	}
	buf := make([]byte, size)
	n, err := unix.Llistxattr(path, buf)
	if err != nil {
		return nil, err
	}
	return splitNames(buf[:n]), nil
}

// splitNames splits a NUL-separated xattr name list as returned by
// listxattr(2).
func splitNames(buf []byte) []string {
	var names []string
	start := 0
	for i, b := range buf {
		if b == 0 {
			if i > start {
				names = append(names, string(buf[start:i]))
			}
			start = i + 1
		}
	}
	return names
}

func getValue(path, name string) ([]byte, error) {
	size, err := unix.Lgetxattr(path, name, nil)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return []byte{}, nil
	}
	buf := make([]byte, size)
	n, err := unix.Lgetxattr(path, name, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}
