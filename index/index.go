// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package index implements the dedup index: an ordered, in-memory map from
// (pathmd5, content-digest) pairs to nothing (presence is the payload). A
// run either starts with an empty index or loads one from a prior run's
// record stream, then consults it once per regular file, after the file
// has been read and digested, to decide whether it needs to be written to
// the destination.
package index

import (
	"bytes"
	"fmt"
	"io"

	"github.com/tidwall/btree"

	"github.com/NationalSecurityAgency/DCP/digest"
	"github.com/NationalSecurityAgency/DCP/log"
	"github.com/NationalSecurityAgency/DCP/record"
)

// keyWidth is MD5_DIGEST_LENGTH (16) plus MAX_DIGEST_LENGTH (64): every key
// is zero-padded out to this fixed width and compared byte-for-byte, the
// same packed-struct trick the reference's berkeley-db comparator relies
// on (see struct key in db_index.c).
const keyWidth = 16 + digest.MaxLength

type key [keyWidth]byte

func makeKey(pathmd5 [16]byte, digestBytes []byte) key {
	var k key
	copy(k[:16], pathmd5[:])
	copy(k[16:], digestBytes)
	return k
}

func lessKey(a, b key) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

// Index is a dedup index keyed on a single digest algorithm, chosen at
// creation time and fixed for the index's lifetime.
type Index struct {
	tag  digest.Tag
	tree *btree.BTreeG[key]
}

// New creates an empty index whose keys are built from tag-digests.
func New(tag digest.Tag) *Index {
	return &Index{
		tag:  tag,
		tree: btree.NewBTreeG(lessKey),
	}
}

// KeyTag reports the digest algorithm this index keys on.
func (idx *Index) KeyTag() digest.Tag {
	return idx.tag
}

// Insert records that pathmd5/digestBytes has been seen. digestBytes must
// be exactly digest.Length(idx.KeyTag()) bytes. A key already present is
// left untouched and reported as a logged warning (not an error), matching the
// reference's add_or_warn: the first sighting of a (pathmd5, digest) pair
// wins, later ones are duplicates and are skipped rather than clobbering
// it.
func (idx *Index) Insert(pathmd5 [16]byte, digestBytes []byte) error {
	warn, err := idx.insert(pathmd5, digestBytes)
	if err != nil {
		return err
	}
	if warn {
		log.Error.Printf("index: duplicate key for pathmd5 %x, skipping", pathmd5)
	}
	return nil
}

func (idx *Index) insert(pathmd5 [16]byte, digestBytes []byte) (duplicate bool, err error) {
	if len(digestBytes) != digest.Length(idx.tag) {
		return false, fmt.Errorf("index: insert: digest is %d bytes, want %d", len(digestBytes), digest.Length(idx.tag))
	}
	k := makeKey(pathmd5, digestBytes)
	if _, ok := idx.tree.Get(k); ok {
		return true, nil
	}
	idx.tree.Set(k)
	return false, nil
}

// Lookup reports whether pathmd5/digestBytes has previously been seen.
func (idx *Index) Lookup(pathmd5 [16]byte, digestBytes []byte) (bool, error) {
	if len(digestBytes) != digest.Length(idx.tag) {
		return false, fmt.Errorf("index: lookup: digest is %d bytes, want %d", len(digestBytes), digest.Length(idx.tag))
	}
	_, ok := idx.tree.Get(makeKey(pathmd5, digestBytes))
	return ok, nil
}

// Len returns the number of entries currently held.
func (idx *Index) Len() int {
	return idx.tree.Len()
}

// PeekDigests scans a prior run's record stream for the mask of digest
// algorithms it computed, without building an index. Used so that a
// second run against the same index file need not restate which digests
// to compute: the first regular-file entry carrying any digest settles
// the mask, since every run computes the same set for every file.
func PeekDigests(r io.Reader) (digest.Mask, error) {
	rd := record.NewReader(r)
	for {
		e, err := rd.ReadEntry()
		if err == record.ErrDone {
			return 0, nil
		}
		if err != nil {
			return 0, fmt.Errorf("index: peek digests: %w", err)
		}
		if !e.IsRegular() || e.State == record.FileFailed {
			continue
		}
		if m := e.DigestMask(); m != 0 {
			return m, nil
		}
	}
}

// LoadFrom populates idx from a prior run's record stream read from r.
// Entries lacking idx's key digest (for example directories, symlinks, or
// a run that didn't compute this algorithm) are skipped; entries reporting
// a failed state are skipped since they were never fully copied.
//
// A record the reader cannot parse stops the scan right there rather than
// failing the load: io_index_read's read loop just stops early on the
// first bad entry and hands back whatever it had already built, so a
// single corrupt line costs the rest of that file's entries, not the
// whole index.
func LoadFrom(r io.Reader, tag digest.Tag) (*Index, error) {
	idx := New(tag)
	rd := record.NewReader(r)
	for {
		e, err := rd.ReadEntry()
		if err == record.ErrDone {
			break
		}
		if err != nil {
			log.Error.Printf("index: stopping load after unreadable record: %v", err)
			break
		}
		if e.State == record.FileFailed || e.State == record.DirFailed {
			continue
		}
		if !e.IsRegular() {
			continue
		}
		digestBytes := e.DigestBytes(tag)
		if len(digestBytes) != digest.Length(tag) {
			continue
		}
		if err := idx.Insert(e.PathMD5, digestBytes); err != nil {
			log.Error.Printf("index: skipping entry for pathmd5 %x: %v", e.PathMD5, err)
			continue
		}
	}
	return idx, nil
}
