// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package walk

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveRootExistingDirectory(t *testing.T) {
	dir := t.TempDir()
	d, err := ResolveRoot(dir, 2)
	if err != nil {
		t.Fatalf("ResolveRoot: %v", err)
	}
	defer d.Root.Close()
	if d.Rename {
		t.Fatal("expected Rename=false for an existing directory target")
	}
}

func TestResolveRootNonexistentSingleSource(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "newname")
	d, err := ResolveRoot(target, 1)
	if err != nil {
		t.Fatalf("ResolveRoot: %v", err)
	}
	defer d.Root.Close()
	if !d.Rename || d.NewName != "newname" {
		t.Fatalf("got Rename=%v NewName=%q", d.Rename, d.NewName)
	}
}

func TestResolveRootNonexistentMultiSourceRejected(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "newname")
	if _, err := ResolveRoot(target, 2); err == nil {
		t.Fatal("expected error for multiple sources into a nonexistent target")
	}
}

func TestResolveRootExistingFileSingleSource(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "existing")
	if err := os.WriteFile(target, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	d, err := ResolveRoot(target, 1)
	if err != nil {
		t.Fatalf("ResolveRoot: %v", err)
	}
	defer d.Root.Close()
	if !d.Rename || d.NewName != "existing" {
		t.Fatalf("got Rename=%v NewName=%q", d.Rename, d.NewName)
	}
}
