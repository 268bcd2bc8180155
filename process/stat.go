// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package process

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// Stat is the subset of a source object's stat(2) information the
// processors and record writer need, pulled out of os.Lstat's
// platform-specific Sys() value.
type Stat struct {
	Mode  uint32
	UID   uint32
	GID   uint32
	Size  int64
	Rdev  uint64
	ASec  int64
	ANSec int64
	MSec  int64
	MNSec int64
	CSec  int64
	CNSec int64
}

// StatFromFileInfo extracts a Stat from an os.Lstat/os.Stat result.
func StatFromFileInfo(fi os.FileInfo) (*Stat, error) {
	sys, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return nil, fmt.Errorf("process: stat: unsupported platform")
	}
	return &Stat{
		Mode:  sys.Mode,
		UID:   sys.Uid,
		GID:   sys.Gid,
		Size:  sys.Size,
		Rdev:  sys.Rdev,
		ASec:  int64(sys.Atim.Sec),
		ANSec: int64(sys.Atim.Nsec),
		MSec:  int64(sys.Mtim.Sec),
		MNSec: int64(sys.Mtim.Nsec),
		CSec:  int64(sys.Ctim.Sec),
		CNSec: int64(sys.Ctim.Nsec),
	}, nil
}

// IsRegular reports whether the stat mode names a regular file.
func (s *Stat) IsRegular() bool {
	return s.Mode&unix.S_IFMT == unix.S_IFREG
}

// resolveOwner returns the uid/gid a copied object should be chowned to:
// the run's configured override if non-negative, otherwise the source
// object's own owner (a generalization of the reference, which always
// took an explicit numeric uid/gid from its CLI options struct).
func resolveOwner(opts *Options, st *Stat) (uid, gid int) {
	uid, gid = opts.UID, opts.GID
	if uid < 0 {
		uid = int(st.UID)
	}
	if gid < 0 {
		gid = int(st.GID)
	}
	return uid, gid
}
