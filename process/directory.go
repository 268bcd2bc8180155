// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package process

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/NationalSecurityAgency/DCP/fshandle"
	"github.com/NationalSecurityAgency/DCP/record"
)

// CreateDirectory issues the preorder mkdirat for a directory entry. An
// already-existing destination directory is not an error: it may remain
// from an earlier run or from an overlapping source tree. The directory is
// created before any of its children are processed.
func CreateDirectory(newdir *fshandle.Dir, name string, pathmd5 [16]byte, path string, st *Stat, start time.Time) *record.Entry {
	state := record.DirCreated
	if err := unix.Mkdirat(newdir.Fd(), name, 0777); err != nil && err != unix.EEXIST {
		state = record.DirFailed
	}
	return newEntry(pathmd5, path, st, state, start)
}

// Directory performs the post-order step for a directory: chowning it now
// that every child has been created inside it. Failure to chown is
// reported to the caller for logging but does not change the directory's
// already-emitted DIR_CREATED/DIR_FAILED state.
func Directory(newdir *fshandle.Dir, name string, st *Stat, opts *Options) error {
	uid, gid := resolveOwner(opts, st)
	return unix.Fchownat(newdir.Fd(), name, uid, gid, 0)
}
