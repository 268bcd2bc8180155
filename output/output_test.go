// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package output

import (
	"bytes"
	"crypto/md5"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/NationalSecurityAgency/DCP/record"
)

func TestEmitEntryWritesRecord(t *testing.T) {
	var buf bytes.Buffer
	s := New(record.NewWriter(&buf))

	p := md5.Sum([]byte("/a"))
	s.EmitEntry(&record.Entry{PathMD5: p, Path: "/a", State: record.FileCopied, ElapsedMS: 1})

	if !strings.Contains(buf.String(), `"state":"FILE_COPIED"`) {
		t.Fatalf("record stream missing expected entry: %q", buf.String())
	}
}

func TestWriteRunMetadata(t *testing.T) {
	var buf bytes.Buffer
	s := New(record.NewWriter(&buf))

	if err := s.WriteRunMetadata([]string{"a", "b"}, "dst"); err != nil {
		t.Fatalf("WriteRunMetadata: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "#sources\ta\tb\n") {
		t.Fatalf("unexpected sources metadata line: %q", out)
	}
	if !strings.Contains(out, "#destination\tdst\n") {
		t.Fatalf("missing destination metadata line: %q", out)
	}
}

func TestEmitXattrsNoopWithoutSink(t *testing.T) {
	var buf bytes.Buffer
	s := New(record.NewWriter(&buf))
	s.EmitXattrs(md5.Sum([]byte("/a")), "/nonexistent/path")
	if buf.Len() != 0 {
		t.Fatalf("expected no writes when xattr sink is unset, got %q", buf.String())
	}
}

func TestEmitXattrsPlainFileWritesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	if err := os.WriteFile(path, []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}

	var entries, xattrs bytes.Buffer
	s := New(record.NewWriter(&entries)).WithXattrs(record.NewWriter(&xattrs))

	// A plain file with no extended attributes set should produce no
	// xattr records, but must not error.
	s.EmitXattrs(md5.Sum([]byte("/f")), path)
	if xattrs.Len() != 0 {
		t.Fatalf("expected no xattr records for a plain file, got %q", xattrs.String())
	}
}
