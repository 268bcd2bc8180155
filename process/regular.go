// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package process

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/NationalSecurityAgency/DCP/digest"
	"github.com/NationalSecurityAgency/DCP/fshandle"
	"github.com/NationalSecurityAgency/DCP/record"
	"github.com/NationalSecurityAgency/DCP/streamio"
)

// Regular processes a regular file.
//
// With no dedup index configured, the file is copied and digested in one
// pass (copy-and-digest).
//
// With a dedup index configured, the file is first digested while being
// cached into opts.Buffer (cache-and-digest): if the whole file fit in
// the buffer it is written from memory, otherwise the source is reseeked
// to the start and piped through a second time. If the index already
// holds this (pathmd5, digest) pair the file is skipped entirely: Regular
// returns a nil Entry and nil error, and the caller must not emit a
// record for it.
func Regular(newdir *fshandle.Dir, name, oldpath string, pathmd5 [16]byte, path string, st *Stat, opts *Options) (*record.Entry, error) {
	start := time.Now()

	src, err := os.Open(oldpath)
	if err != nil {
		e := newEntry(pathmd5, path, st, record.FileFailed, start)
		return e, nil
	}
	defer src.Close()

	haveIndex := opts.Index != nil
	mask := opts.Digests
	var idxTag digest.Tag
	if haveIndex {
		idxTag = opts.Index.KeyTag()
		mask |= digest.MaskFor(idxTag)
	}
	set := digest.NewSet(mask)

	uid, gid := resolveOwner(opts, st)

	if !haveIndex {
		if err := copyAndDigest(newdir.Fd(), name, src, set, opts.Buffer, uid, gid); err != nil {
			e := newEntry(pathmd5, path, st, record.FileFailed, start)
			return e, nil
		}
		set.Finalize()
		e := newEntry(pathmd5, path, st, record.FileCopied, start)
		fillDigests(e, set)
		return e, nil
	}

	validLen, err := cacheAndDigest(src, set, opts.Buffer)
	if err != nil {
		e := newEntry(pathmd5, path, st, record.FileFailed, start)
		return e, nil
	}
	set.Finalize()

	hit, err := opts.Index.Lookup(pathmd5, set.Value(idxTag))
	if err != nil {
		return nil, fmt.Errorf("process: index lookup for `%s': %w", path, err)
	}
	if hit {
		return nil, nil
	}

	var copyErr error
	if validLen == st.Size {
		copyErr = writeMem(newdir.Fd(), name, opts.Buffer[:validLen], uid, gid)
	} else {
		copyErr = copyFromStart(newdir.Fd(), name, src, opts.Buffer, uid, gid)
	}

	state := record.FileCopied
	if copyErr != nil {
		state = record.FileFailed
	} else if err := opts.Index.Insert(pathmd5, set.Value(idxTag)); err != nil {
		return nil, fmt.Errorf("process: index insert for `%s': %w", path, err)
	}

	e := newEntry(pathmd5, path, st, state, start)
	fillDigests(e, set)
	return e, nil
}

// copyAndDigest streams src through buf, updating set and writing every
// chunk to dirfd/name as it is read.
func copyAndDigest(dirfd int, name string, src *os.File, set *digest.Set, buf []byte, uid, gid int) error {
	streamio.Advise(src)
	fd, err := unix.Openat(dirfd, name, unix.O_WRONLY|unix.O_CREAT|unix.O_TRUNC, 0666)
	if err != nil {
		return fmt.Errorf("process: openat `%s': %w", name, err)
	}
	dst := os.NewFile(uintptr(fd), name)
	defer dst.Close()

	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			set.Update(buf[:n])
			if werr := streamio.WriteFull(dst, buf[:n]); werr != nil {
				return werr
			}
		}
		if rerr != nil {
			if rerr == io.EOF {
				break
			}
			return rerr
		}
	}
	_ = unix.Fchown(fd, uid, gid)
	return nil
}

// cacheAndDigest reads src to EOF through buf, updating set as it goes.
// As long as the file fits within len(buf) the returned length equals the
// number of valid bytes sitting in buf from offset 0, letting the caller
// skip a second read pass. A file larger than the buffer overwrites
// earlier bytes as it rolls over, so the caller must reseek and reread to
// actually copy it.
func cacheAndDigest(src *os.File, set *digest.Set, buf []byte) (int64, error) {
	streamio.Advise(src)
	blen := int64(len(buf))
	var total int64
	for {
		if total == blen {
			// The buffer is full: probe for EOF before rolling over, so
			// a file of exactly len(buf) bytes stays cached.
			var probe [1]byte
			n, err := src.Read(probe[:])
			if err == io.EOF {
				break
			}
			if err != nil {
				return 0, err
			}
			total = int64(copy(buf, probe[:n]))
			set.Update(buf[:total])
			continue
		}
		n, err := src.Read(buf[total:])
		if n > 0 {
			set.Update(buf[total : total+int64(n)])
			total += int64(n)
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return 0, err
		}
	}
	return total, nil
}

// writeMem writes a fully-cached file straight from memory.
func writeMem(dirfd int, name string, data []byte, uid, gid int) error {
	fd, err := unix.Openat(dirfd, name, unix.O_WRONLY|unix.O_CREAT|unix.O_TRUNC, 0666)
	if err != nil {
		return fmt.Errorf("process: openat `%s': %w", name, err)
	}
	dst := os.NewFile(uintptr(fd), name)
	defer dst.Close()
	if err := streamio.WriteFull(dst, data); err != nil {
		return err
	}
	_ = unix.Fchown(fd, uid, gid)
	return nil
}

// copyFromStart reseeks src to the beginning and pipes it to dirfd/name,
// used when cacheAndDigest's buffer rolled over and can no longer serve
// as the file's contents.
func copyFromStart(dirfd int, name string, src *os.File, buf []byte, uid, gid int) error {
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("process: seek: %w", err)
	}
	fd, err := unix.Openat(dirfd, name, unix.O_WRONLY|unix.O_CREAT|unix.O_TRUNC, 0666)
	if err != nil {
		return fmt.Errorf("process: openat `%s': %w", name, err)
	}
	dst := os.NewFile(uintptr(fd), name)
	defer dst.Close()
	if err := streamio.Pipe(dst, src, buf); err != nil {
		return err
	}
	_ = unix.Fchown(fd, uid, gid)
	return nil
}
