// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package digest implements the single-algorithm streaming digester and
// the multi-digest fanout set used by DCP's regular-file processor to
// compute up to four digests of a file in one read pass.
package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
)

// Tag identifies a digest algorithm.
type Tag uint8

// The digest algorithms DCP supports.
const (
	MD5 Tag = iota
	SHA1
	SHA256
	SHA512
)

// numTags is the number of valid Tag values.
const numTags = 4

// Mask is a bitset over the four supported Tags.
type Mask uint8

// MaskFor returns the single-bit Mask for tag.
func MaskFor(tag Tag) Mask {
	return Mask(1) << uint(tag)
}

// Has reports whether m includes tag.
func (m Mask) Has(tag Tag) bool {
	return m&MaskFor(tag) != 0
}

// MaxLength is the byte length of the longest digest this package produces.
const MaxLength = sha512.Size

// Length returns the byte length of a digest produced by tag.
func Length(tag Tag) int {
	switch tag {
	case MD5:
		return md5.Size
	case SHA1:
		return sha1.Size
	case SHA256:
		return sha256.Size
	case SHA512:
		return sha512.Size
	}
	return 0
}

// String names a Tag the way record keys and CLI flags spell it.
func (t Tag) String() string {
	switch t {
	case MD5:
		return "md5"
	case SHA1:
		return "sha1"
	case SHA256:
		return "sha256"
	case SHA512:
		return "sha512"
	}
	return "unknown"
}

// ParseTag parses the lowercase name written by Tag.String back into a Tag.
func ParseTag(s string) (Tag, error) {
	switch s {
	case "md5":
		return MD5, nil
	case "sha1":
		return SHA1, nil
	case "sha256":
		return SHA256, nil
	case "sha512":
		return SHA512, nil
	}
	return 0, fmt.Errorf("digest: unknown tag %q", s)
}

// Digester is a stateful single-algorithm digest computation. Creation is
// followed by zero or more Update calls and exactly one Finalize call;
// Update after Finalize is a no-op, and Value returns nothing until
// Finalize has run.
type Digester struct {
	tag       Tag
	h         hash.Hash
	value     []byte
	finalized bool
}

// New creates a Digester for the given algorithm, open for updates.
func New(tag Tag) *Digester {
	var h hash.Hash
	switch tag {
	case MD5:
		h = md5.New()
	case SHA1:
		h = sha1.New()
	case SHA256:
		h = sha256.New()
	case SHA512:
		h = sha512.New()
	default:
		panic(fmt.Sprintf("digest: unknown tag %d", tag))
	}
	return &Digester{tag: tag, h: h}
}

// Tag returns the algorithm this Digester computes.
func (d *Digester) Tag() Tag {
	return d.tag
}

// Update folds bytes into the running digest. It is a no-op if bytes is
// empty or the Digester has already been finalized.
func (d *Digester) Update(bytes []byte) {
	if d.finalized || len(bytes) == 0 {
		return
	}
	d.h.Write(bytes)
}

// Finalize computes and stores the digest value, closing the Digester to
// further updates. Calling Finalize more than once is a no-op.
func (d *Digester) Finalize() {
	if d.finalized {
		return
	}
	d.value = d.h.Sum(nil)
	d.finalized = true
}

// IsFinalized reports whether Finalize has been called.
func (d *Digester) IsFinalized() bool {
	return d.finalized
}

// Value returns the finalized digest bytes, or nil if Finalize has not
// yet been called.
func (d *Digester) Value() []byte {
	if !d.finalized {
		return nil
	}
	return d.value
}
