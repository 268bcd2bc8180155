// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package walk drives the post-order traversal of every source tree,
// builds each visited object's Destination Absolute Path, and dispatches
// to the process package's per-type handlers.
package walk

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/NationalSecurityAgency/DCP/fshandle"
)

// Destination is the resolved root the walk copies into, plus whether the
// run is renaming its single source to a new name rather than copying
// into an existing directory.
//
// How a destination argument resolves, ported from the reference's
// initdestandpaths: an existing directory is copied into
// using each source's own basename; anything else names the new
// top-level entry directly and requires exactly one source.
type Destination struct {
	Root   *fshandle.Dir
	Rename bool
	// NewName is the top-level name to use for the (single) source when
	// Rename is true.
	NewName string
}

// ResolveRoot opens and classifies dest for a run copying srcCount source
// trees into it.
func ResolveRoot(dest string, srcCount int) (*Destination, error) {
	dest = filepath.Clean(dest)

	fi, err := os.Stat(dest)
	switch {
	case err == nil && fi.IsDir():
		root, oerr := fshandle.Open(dest)
		if oerr != nil {
			return nil, oerr
		}
		return &Destination{Root: root}, nil

	case err == nil && !fi.IsDir():
		if srcCount > 1 {
			return nil, fmt.Errorf("walk: target `%s' is not a directory", dest)
		}
		parent, name := splitParentName(dest)
		root, oerr := fshandle.Open(parent)
		if oerr != nil {
			return nil, fmt.Errorf("walk: cannot open target parent `%s': %w", parent, oerr)
		}
		return &Destination{Root: root, Rename: true, NewName: name}, nil

	case os.IsNotExist(err):
		if srcCount > 1 {
			return nil, fmt.Errorf("walk: target `%s' is not a directory", dest)
		}
		parent, name := splitParentName(dest)
		root, oerr := fshandle.Open(parent)
		if oerr != nil {
			return nil, fmt.Errorf("walk: cannot open target parent `%s': %w", parent, oerr)
		}
		return &Destination{Root: root, Rename: true, NewName: name}, nil

	default:
		return nil, fmt.Errorf("walk: cannot stat target `%s': %w", dest, err)
	}
}

// splitParentName splits dest into the directory to open and the leaf
// name to create within it, defaulting the parent to "." when dest has
// no directory component.
func splitParentName(dest string) (parent, name string) {
	parent, name = filepath.Split(dest)
	if parent == "" {
		parent = "."
	} else {
		parent = filepath.Clean(parent)
	}
	return parent, name
}
