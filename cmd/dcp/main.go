// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command dcp copies one or more source file trees into a destination,
// computing content digests as it goes and, with -index, skipping any
// regular file whose (path, content) pair was already copied by a prior
// run. It reports one newline-delimited JSON record per processed object
// on stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/NationalSecurityAgency/DCP/digest"
	"github.com/NationalSecurityAgency/DCP/errors"
	"github.com/NationalSecurityAgency/DCP/flags"
	"github.com/NationalSecurityAgency/DCP/index"
	"github.com/NationalSecurityAgency/DCP/log"
	"github.com/NationalSecurityAgency/DCP/output"
	"github.com/NationalSecurityAgency/DCP/process"
	"github.com/NationalSecurityAgency/DCP/record"
	"github.com/NationalSecurityAgency/DCP/walk"
)

const defaultBufferSize = 32 * 1024

func main() {
	flag.Usage = usage
	flag.Parse()

	if flags.GCPProject != "" {
		if err := log.Connect(context.Background(), flags.GCPProject); err != nil {
			log.Fatalf("cannot connect to GCP project %q: %v", flags.GCPProject, err)
		}
	}

	args := flag.Args()
	if len(args) < 2 {
		usage()
		os.Exit(2)
	}
	sources, dest := args[:len(args)-1], args[len(args)-1]

	idxTag, err := flags.IndexDigestTag()
	if err != nil {
		log.Fatal(errors.E("index-digest", errors.Invalid, err))
	}

	var idx *index.Index
	mask := flags.Mask()
	if flags.IndexPath != "" {
		idx, mask, err = loadIndex(flags.IndexPath, idxTag, mask)
		if err != nil {
			log.Fatal(errors.E("load-index", errors.IO, err))
		}
	}

	dst, err := walk.ResolveRoot(dest, len(sources))
	if err != nil {
		log.Fatal(errors.E("resolve-root", errors.Invalid, err))
	}
	defer dst.Root.Close()

	bufSize := flags.BufferSize
	if bufSize <= 0 {
		bufSize = defaultBufferSize
	}
	opts := &process.Options{
		Digests: mask,
		UID:     flags.UID,
		GID:     flags.GID,
		Buffer:  make([]byte, bufSize),
		Index:   idx,
	}

	out := output.New(record.NewWriter(os.Stdout))
	if err := out.WriteRunMetadata(sources, dest); err != nil {
		log.Fatal(errors.E("write-metadata", errors.IO, err))
	}
	if f := openXattrOut(); f != nil {
		defer f.Close()
		out.WithXattrs(record.NewWriter(f))
	}

	d := walk.New(dst, opts, flags.Verbose, out.EmitEntry).WithXattrs(out.EmitXattrs)
	d.Run(sources)
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: dcp [flags] source... destination\n")
	flag.PrintDefaults()
}

// loadIndex loads a prior run's record stream as a dedup index. When
// requestedMask is empty, the index's own digest mask (via
// index.PeekDigests) is adopted instead, so a second run against the
// same index need not restate which digests to compute.
func loadIndex(path string, tag digest.Tag, requestedMask digest.Mask) (*index.Index, digest.Mask, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("cannot open index `%s': %w", path, err)
	}
	defer f.Close()

	mask := requestedMask
	if mask == 0 {
		peeked, err := index.PeekDigests(f)
		if err != nil {
			return nil, 0, fmt.Errorf("cannot peek digests in `%s': %w", path, err)
		}
		mask = peeked
		if _, err := f.Seek(0, 0); err != nil {
			return nil, 0, fmt.Errorf("cannot rewind index `%s': %w", path, err)
		}
	}

	idx, err := index.LoadFrom(f, tag)
	if err != nil {
		return nil, 0, fmt.Errorf("cannot load index `%s': %w", path, err)
	}
	return idx, mask | digest.MaskFor(tag), nil
}

func openXattrOut() *os.File {
	if flags.XattrOut == "" {
		return nil
	}
	f, err := os.Create(flags.XattrOut)
	if err != nil {
		log.Fatal(errors.E("xattr-out", errors.IO, err))
	}
	return f
}
