// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fshandle provides the (open directory, display path) pair that
// roots every *at-family syscall the walk driver and file processors issue
// against the destination tree, mirroring the reference's file_t.
package fshandle

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Dir is an open directory together with the display path it was opened
// from. Every create/lookup/remove the processors perform against the
// destination tree is resolved relative to Fd, avoiding the TOCTOU races a
// path-based os.* call would have against a concurrently changing tree.
type Dir struct {
	path string
	f    *os.File
}

// Open opens path as a directory handle.
func Open(path string) (*Dir, error) {
	f, err := os.OpenFile(path, os.O_RDONLY|unix.O_DIRECTORY, 0)
	if err != nil {
		return nil, fmt.Errorf("fshandle: open %q: %w", path, err)
	}
	return &Dir{path: path, f: f}, nil
}

// Path returns the display path this handle was opened from.
func (d *Dir) Path() string {
	return d.path
}

// Fd returns the raw file descriptor to use with unix.*at calls.
func (d *Dir) Fd() int {
	return int(d.f.Fd())
}

// Close closes the underlying directory descriptor.
func (d *Dir) Close() error {
	return d.f.Close()
}

// Join renders path as it should be reported in log/verbose output,
// matching the reference's pathstr: "<d.path>/<path>", or just path when
// d.path is empty (the destination root case).
func (d *Dir) Join(path string) string {
	if d.path == "" {
		return path
	}
	return d.path + "/" + path
}
