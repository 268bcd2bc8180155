// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package flags defines command-line flags to make them consistent
// between the dcp binary and any tooling built atop this module.
package flags

import (
	"flag"
	"fmt"

	"github.com/NationalSecurityAgency/DCP/digest"
	"github.com/NationalSecurityAgency/DCP/log"
)

// We define the flags in two steps so clients don't have to write *flags.Flag.
// It also makes the documentation easier to read.

var (
	// MD5, SHA1, SHA256, SHA512 select which digests to compute for each
	// regular file copied. If none are set and an index is supplied, the
	// digests it was built with are used instead (see index.PeekDigests).
	MD5    = false
	SHA1   = false
	SHA256 = false
	SHA512 = false

	// BufferSize is the size, in bytes, of the shared per-file read buffer.
	// Zero selects the default of 32 KiB.
	BufferSize = 0

	// UID and GID are the owner and group to chown copied files to.
	// -1 chowns each copied object to its source object's own owner or
	// group instead.
	UID = -1
	GID = -1

	// IndexPath names a prior run's output to load as a dedup index.
	// Empty disables deduping.
	IndexPath = ""

	// IndexDigest names which digest tag the index is keyed on
	// (md5, sha1, sha256 or sha512). Defaults to sha256.
	IndexDigest = "sha256"

	// XattrOut names the file extended attribute records are written to;
	// an existing file is truncated. Empty discards xattr records.
	XattrOut = ""

	// Verbose enables the pre-processor's removed/renamed trace lines.
	Verbose = false

	// GCPProject, if non-empty, connects the log package to Google Cloud
	// Logging under this project ID.
	GCPProject = ""

	// LogLevel sets the level of logging.
	LogLevel = logFlag("info")
)

type logFlag string

// String implements flag.Value.
func (l *logFlag) String() string {
	return log.CurrentLevel().String()
}

// Set implements flag.Value.
func (l *logFlag) Set(level string) error {
	lvl := log.ParseLevel(level)
	if lvl == log.Linvalid {
		return fmt.Errorf("invalid log level %q", level)
	}
	log.SetLevel(lvl)
	*l = logFlag(level)
	return nil
}

// Get implements flag.Getter.
func (l *logFlag) Get() interface{} {
	return string(*l)
}

func init() {
	flag.BoolVar(&MD5, "md5", MD5, "compute an MD5 digest of each regular file")
	flag.BoolVar(&SHA1, "sha1", SHA1, "compute a SHA1 digest of each regular file")
	flag.BoolVar(&SHA256, "sha256", SHA256, "compute a SHA256 digest of each regular file")
	flag.BoolVar(&SHA512, "sha512", SHA512, "compute a SHA512 digest of each regular file")
	flag.IntVar(&BufferSize, "buffer-size", BufferSize, "size in bytes of the shared read buffer (0 selects the default)")
	flag.IntVar(&UID, "uid", UID, "owner to chown copied files to (-1 keeps the source's owner)")
	flag.IntVar(&GID, "gid", GID, "group to chown copied files to (-1 keeps the source's group)")
	flag.StringVar(&IndexPath, "index", IndexPath, "prior run's output to load as a dedup index")
	flag.StringVar(&IndexDigest, "index-digest", IndexDigest, "digest tag the index is keyed on: md5, sha1, sha256 or sha512")
	flag.StringVar(&XattrOut, "xattr-out", XattrOut, "file to write extended attribute records to (truncated if it exists)")
	flag.BoolVar(&Verbose, "verbose", Verbose, "trace destination removals and renames")
	flag.StringVar(&GCPProject, "gcp-project", GCPProject, "Google Cloud project to stream logs to (empty disables)")
	flag.Var(&LogLevel, "log", "level of logging: debug, info, error, disabled")
}

// Mask returns the digest mask selected by -md5/-sha1/-sha256/-sha512.
func Mask() digest.Mask {
	var m digest.Mask
	if MD5 {
		m |= digest.MaskFor(digest.MD5)
	}
	if SHA1 {
		m |= digest.MaskFor(digest.SHA1)
	}
	if SHA256 {
		m |= digest.MaskFor(digest.SHA256)
	}
	if SHA512 {
		m |= digest.MaskFor(digest.SHA512)
	}
	return m
}

// IndexDigestTag parses IndexDigest into a digest.Tag.
func IndexDigestTag() (digest.Tag, error) {
	return digest.ParseTag(IndexDigest)
}
