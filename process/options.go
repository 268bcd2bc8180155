// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package process implements the per-object-type handlers the walk driver
// dispatches to: regular files (with optional dedup), directories,
// symlinks, and special device files. Each handler creates (or skips, in
// the dedup-hit case) the destination object and returns the record.Entry
// describing the outcome.
package process

import (
	"github.com/NationalSecurityAgency/DCP/digest"
	"github.com/NationalSecurityAgency/DCP/index"
)

// Options holds the parameters shared by every processor, analogous to
// the reference's struct process_opts.
type Options struct {
	// Digests is the mask of algorithms to compute for regular files.
	Digests digest.Mask

	// UID/GID to chown copied objects to. A negative value preserves the
	// source object's own owner instead of overriding it.
	UID, GID int

	// Buffer is reused across every regular file this run processes,
	// avoiding a fresh allocation per file.
	Buffer []byte

	// Index, if non-nil, is consulted (and updated) to skip copying
	// regular files already seen by content.
	Index *index.Index
}
