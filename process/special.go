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

// Special recreates a FIFO, character device, block device, or socket by
// calling mknodat with the source's type bits and rdev, then chowning the
// result. A chown failure is non-fatal: the device was still created.
func Special(newdir *fshandle.Dir, name string, pathmd5 [16]byte, path string, st *Stat, opts *Options, start time.Time) *record.Entry {
	state := record.SpecialCreated
	mode := (st.Mode & unix.S_IFMT) | 0666
	if err := unix.Mknodat(newdir.Fd(), name, mode, int(st.Rdev)); err != nil {
		state = record.FileFailed
	} else {
		uid, gid := resolveOwner(opts, st)
		_ = unix.Fchownat(newdir.Fd(), name, uid, gid, 0)
	}
	return newEntry(pathmd5, path, st, state, start)
}
