// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package output wires the walk driver's per-object callbacks to the
// record stream: one sink for entries, and an optional second sink for
// extended attributes, each written as newline-delimited JSON through the
// record package's Writer.
package output

import (
	"fmt"

	"github.com/NationalSecurityAgency/DCP/log"
	"github.com/NationalSecurityAgency/DCP/record"
	"github.com/NationalSecurityAgency/DCP/xattrio"
)

// Sink owns the entry stream and, optionally, the xattr stream for one
// run. Both are line-buffered by the underlying io.Writer the caller
// supplies to New/WithXattrs; Sink itself does no buffering.
type Sink struct {
	entries *record.Writer
	xattrs  *record.Writer
}

// New returns a Sink that writes entries to entryWriter. Call WithXattrs
// to additionally emit extended attribute records.
func New(entryWriter *record.Writer) *Sink {
	return &Sink{entries: entryWriter}
}

// WithXattrs attaches an xattr record sink, returning s for chaining.
func (s *Sink) WithXattrs(xattrWriter *record.Writer) *Sink {
	s.xattrs = xattrWriter
	return s
}

// EmitEntry writes e to the entry stream. Errors are logged, not
// returned, matching the walk driver's emit callback signature
// (func(*record.Entry)), which has no error path of its own: a write
// failure on the output stream is logged, the traversal of sibling files
// continues, and the run's exit status is not affected.
func (s *Sink) EmitEntry(e *record.Entry) {
	if err := s.entries.WriteEntry(e); err != nil {
		log.Error.Printf("cannot write entry record: %v", err)
	}
}

// EmitXattrs lists srcPath's extended attributes and writes one
// XattrEntry record per attribute found. A no-op if WithXattrs was never
// called, or if srcPath carries no extended attributes.
func (s *Sink) EmitXattrs(pathmd5 [16]byte, srcPath string) {
	if s.xattrs == nil {
		return
	}
	attrs, err := xattrio.List(srcPath)
	if err != nil {
		log.Error.Printf("cannot list xattrs on `%s': %v", srcPath, err)
		return
	}
	for _, a := range attrs {
		x := &record.XattrEntry{PathMD5: pathmd5, Name: a.Name, Value: a.Value}
		if err := s.xattrs.WriteXattr(x); err != nil {
			log.Error.Printf("cannot write xattr record: %v", err)
		}
	}
}

// WriteRunMetadata emits the run's "#"-prefixed metadata lines: the
// source arguments and the destination, in that order, ahead of any
// entry records.
func (s *Sink) WriteRunMetadata(sources []string, dest string) error {
	if err := s.entries.WriteMetadataList("sources", sources); err != nil {
		return fmt.Errorf("output: writing sources metadata: %w", err)
	}
	if err := s.entries.WriteMetadata("destination", dest); err != nil {
		return fmt.Errorf("output: writing destination metadata: %w", err)
	}
	return nil
}
