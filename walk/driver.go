// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package walk

import (
	"crypto/md5"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/NationalSecurityAgency/DCP/fshandle"
	"github.com/NationalSecurityAgency/DCP/log"
	"github.com/NationalSecurityAgency/DCP/process"
	"github.com/NationalSecurityAgency/DCP/record"
)

// Driver walks a set of source trees, copying each into dest per opts,
// reporting one record.Entry per processed object through emit.
type Driver struct {
	dest      *Destination
	opts      *process.Options
	verbose   bool
	emit      func(*record.Entry)
	emitXattr func(pathmd5 [16]byte, srcPath string)
}

// New creates a Driver rooted at dest.
func New(dest *Destination, opts *process.Options, verbose bool, emit func(*record.Entry)) *Driver {
	return &Driver{dest: dest, opts: opts, verbose: verbose, emit: emit}
}

// WithXattrs attaches a callback invoked with each successfully processed
// object's (pathmd5, source path), mirroring the reference processor,
// which lists a file's extended attributes before writing its entry
// record. Returns d for chaining.
func (d *Driver) WithXattrs(emitXattr func(pathmd5 [16]byte, srcPath string)) *Driver {
	d.emitXattr = emitXattr
	return d
}

func (d *Driver) reportXattrs(pathmd5 [16]byte, srcPath string) {
	if d.emitXattr != nil {
		d.emitXattr(pathmd5, srcPath)
	}
}

// Run walks every tree in sources, copying each into the driver's
// destination. A source-level error (cannot stat the source root) is
// reported through emit as a failed record and does not abort the other
// sources.
func (d *Driver) Run(sources []string) {
	for _, src := range sources {
		src = filepath.Clean(src)
		relRoot := filepath.Base(src)
		dapathRoot := relRoot
		if d.dest.Rename {
			relRoot = d.dest.NewName
			// A rename's root name is baked into the destination path but
			// never itself part of the DAP: descendants' DAPs are relative
			// to an empty root, the reference's dapath pointer landing
			// past the renamed name in the shared path buffer.
			dapathRoot = ""
		}
		d.walk(src, relRoot, dapathRoot, true)
	}
}

// walk processes one filesystem object at srcPath. relPath is its
// destination-relative path (no leading slash), used for openat and the
// reference's "destpath"; dapathRel is the corresponding basis for its
// Destination Absolute Path (the reference's "dapath"), which for a
// renamed tree has the root's name stripped off so that copying the same
// source under two different renamed roots still yields the same DAP.
// walk recurses into directories post-order: children are fully
// processed before the directory's own chown.
func (d *Driver) walk(srcPath, relPath, dapathRel string, isRoot bool) {
	fi, err := os.Lstat(srcPath)
	if err != nil {
		log.Error.Printf("cannot stat `%s': %v", srcPath, err)
		dapath := dapathFor(relPath, dapathRel, isRoot, d.dest.Rename, false)
		d.emit(&record.Entry{
			PathMD5:   pathMD5(dapath),
			Path:      dapath,
			State:     record.FileFailed,
			ElapsedMS: -1,
		})
		return
	}

	st, err := process.StatFromFileInfo(fi)
	if err != nil {
		log.Error.Printf("cannot interpret stat for `%s': %v", srcPath, err)
		return
	}

	isDir := fi.IsDir()
	dapath := dapathFor(relPath, dapathRel, isRoot, d.dest.Rename, isDir)
	pathmd5 := pathMD5(dapath)

	switch {
	case isDir:
		d.walkDir(srcPath, relPath, dapathRel, dapath, pathmd5, st)
	case fi.Mode()&os.ModeSymlink != 0:
		d.walkSymlink(srcPath, relPath, dapath, pathmd5, st)
	case st.IsRegular():
		d.walkRegular(srcPath, relPath, dapath, pathmd5, st)
	default:
		d.walkSpecial(srcPath, relPath, dapath, pathmd5, st)
	}
}

func (d *Driver) walkDir(srcPath, relPath, dapathRel, dapath string, pathmd5 [16]byte, st *process.Stat) {
	if err := process.PreProcess(d.dest.Root, relPath, srcPath, true, d.verbose); err != nil {
		log.Error.Print(err)
		d.emit(&record.Entry{PathMD5: pathmd5, Path: dapath, State: record.DirFailed, ElapsedMS: -1})
		return
	}

	start := time.Now()
	e := process.CreateDirectory(d.dest.Root, relPath, pathmd5, dapath, st, start)
	d.emit(e)
	if e.State == record.DirFailed {
		return
	}
	d.reportXattrs(pathmd5, srcPath)

	names, err := readDirSorted(srcPath)
	if err != nil {
		log.Error.Printf("cannot read dir `%s': %v", srcPath, err)
		d.emit(&record.Entry{PathMD5: pathmd5, Path: dapath, State: record.FileFailed, ElapsedMS: -1})
	} else {
		for _, name := range names {
			d.walk(filepath.Join(srcPath, name), relPath+"/"+name, joinRel(dapathRel, name), false)
		}
	}

	if err := process.Directory(d.dest.Root, relPath, st, d.opts); err != nil {
		log.Error.Printf("cannot chown `%s': %v", d.dest.Root.Join(relPath), err)
	}
}

func (d *Driver) walkSymlink(srcPath, relPath, dapath string, pathmd5 [16]byte, st *process.Stat) {
	if err := process.PreProcess(d.dest.Root, relPath, srcPath, false, d.verbose); err != nil {
		log.Error.Print(err)
		d.emit(&record.Entry{PathMD5: pathmd5, Path: dapath, State: record.FileFailed, ElapsedMS: -1})
		return
	}
	e := process.Symlink(d.dest.Root, relPath, srcPath, pathmd5, dapath, st, time.Now())
	d.emit(e)
	if e.State != record.FileFailed {
		d.reportXattrs(pathmd5, srcPath)
	}
}

func (d *Driver) walkRegular(srcPath, relPath, dapath string, pathmd5 [16]byte, st *process.Stat) {
	if err := process.PreProcess(d.dest.Root, relPath, srcPath, false, d.verbose); err != nil {
		log.Error.Print(err)
		d.emit(&record.Entry{PathMD5: pathmd5, Path: dapath, State: record.FileFailed, ElapsedMS: -1})
		return
	}
	e, err := process.Regular(d.dest.Root, relPath, srcPath, pathmd5, dapath, st, d.opts)
	if err != nil {
		log.Error.Printf("cannot process `%s': %v", srcPath, err)
		return
	}
	if e == nil {
		// dedup hit: index already held this (pathmd5, digest) pair. The
		// reference skips its whole processor callback, xattrs included,
		// on a dedup hit, so no xattr listing happens here either.
		return
	}
	d.emit(e)
	if e.State != record.FileFailed {
		d.reportXattrs(pathmd5, srcPath)
	}
}

func (d *Driver) walkSpecial(srcPath, relPath, dapath string, pathmd5 [16]byte, st *process.Stat) {
	if err := process.PreProcess(d.dest.Root, relPath, srcPath, false, d.verbose); err != nil {
		log.Error.Print(err)
		d.emit(&record.Entry{PathMD5: pathmd5, Path: dapath, State: record.FileFailed, ElapsedMS: -1})
		return
	}
	e := process.Special(d.dest.Root, relPath, pathmd5, dapath, st, d.opts, time.Now())
	d.emit(e)
	if e.State != record.FileFailed {
		d.reportXattrs(pathmd5, srcPath)
	}
}

// dapathFor computes the Destination Absolute Path for a relPath/dapathRel
// pair. relPath always includes the root's name (it is also the openat-
// relative destination path); dapathRel is relPath with that root name
// stripped for a rename, matching the reference's separate dapath/destpath
// pointers into its shared path buffer.
//
// Two special cases survive at the root of a rename, where dapathRel is
// empty: a directory reports DAP "/", dropping its own renamed name from
// its own record (its descendants' DAPs are built from dapathRel and so
// never carry it either). A file reports "/relPath" — the reference uses
// destpath, not the empty dapath, for that one case.
func dapathFor(relPath, dapathRel string, isRoot, rename, isDir bool) string {
	if isRoot && rename {
		if isDir {
			return "/"
		}
		return "/" + relPath
	}
	return "/" + dapathRel
}

// joinRel appends name to a dapath-relative path, treating an empty base
// (the root of a rename) as having nothing to join a separator onto.
func joinRel(base, name string) string {
	if base == "" {
		return name
	}
	return base + "/" + name
}

func pathMD5(dapath string) [16]byte {
	return md5.Sum([]byte(dapath))
}

func readDirSorted(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	sort.Strings(names)
	return names, nil
}
