// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package process

import (
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/NationalSecurityAgency/DCP/fshandle"
	"github.com/NationalSecurityAgency/DCP/record"
)

// Symlink recreates a symbolic link, reading its target from oldpath and
// creating an equivalent link at newdir/name. An existing object at the
// destination is unlinked and the create retried, matching the
// reference's EEXIST retry loop.
func Symlink(newdir *fshandle.Dir, name, oldpath string, pathmd5 [16]byte, path string, st *Stat, start time.Time) *record.Entry {
	target, err := os.Readlink(oldpath)
	if err != nil {
		e := newEntry(pathmd5, path, st, record.FileFailed, start)
		return e
	}

	state := record.SymlinkCreated
	for {
		err = unix.Symlinkat(target, newdir.Fd(), name)
		if err == nil {
			break
		}
		if err == unix.EEXIST {
			if unlinkErr := unix.Unlinkat(newdir.Fd(), name, 0); unlinkErr != nil {
				state = record.FileFailed
				break
			}
			continue
		}
		state = record.FileFailed
		break
	}

	e := newEntry(pathmd5, path, st, state, start)
	e.SymlinkTarget = target
	return e
}
