// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xattrio

import (
	"os"
	"testing"
)

func TestSplitNames(t *testing.T) {
	buf := []byte("user.a\x00user.b\x00")
	got := splitNames(buf)
	if len(got) != 2 || got[0] != "user.a" || got[1] != "user.b" {
		t.Fatalf("splitNames = %v", got)
	}
}

func TestSplitNamesEmpty(t *testing.T) {
	if got := splitNames(nil); len(got) != 0 {
		t.Fatalf("splitNames(nil) = %v, want empty", got)
	}
}

func TestListOnPlainFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/f"
	if err := os.WriteFile(path, []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}
	attrs, err := List(path)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	// A freshly created file on most test filesystems carries no xattrs;
	// this just exercises the non-error path end to end.
	_ = attrs
}
