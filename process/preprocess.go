// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package process

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/NationalSecurityAgency/DCP/fshandle"
)

// PreProcess validates (and clears) whatever currently sits at
// newdir/name before a source object is copied there, and optionally
// prints the same two lines of verbose output the reference tool emits:
// a "removed `...'" line when an existing non-directory destination is
// unlinked, followed by "`old' -> `new'" for every object about to be
// processed. Overwriting a directory with a non-directory (or vice
// versa) is rejected.
func PreProcess(newdir *fshandle.Dir, name, oldpath string, oldIsDir, verbose bool) error {
	var st unix.Stat_t
	err := unix.Fstatat(newdir.Fd(), name, &st, unix.AT_SYMLINK_NOFOLLOW)
	switch {
	case err == nil:
		destIsDir := st.Mode&unix.S_IFMT == unix.S_IFDIR
		switch {
		case oldIsDir && destIsDir:
			return nil
		case oldIsDir && !destIsDir:
			return fmt.Errorf("process: cannot overwrite non-directory `%s' with directory `%s'", newdir.Join(name), oldpath)
		case !oldIsDir && destIsDir:
			return fmt.Errorf("process: cannot overwrite directory `%s' with non-directory `%s'", newdir.Join(name), oldpath)
		default:
			if err := unix.Unlinkat(newdir.Fd(), name, 0); err != nil {
				return fmt.Errorf("process: cannot remove `%s': %w", newdir.Join(name), err)
			}
			if verbose {
				fmt.Printf("removed `%s'\n", newdir.Join(name))
			}
		}
	case err == unix.ENOENT:
		// nothing at the destination yet; nothing to remove.
	default:
		return fmt.Errorf("process: cannot stat `%s': %w", newdir.Join(name), err)
	}
	if verbose {
		fmt.Printf("`%s' -> `%s'\n", oldpath, newdir.Join(name))
	}
	return nil
}
