// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package process

import (
	"crypto/md5"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/NationalSecurityAgency/DCP/digest"
	"github.com/NationalSecurityAgency/DCP/fshandle"
	"github.com/NationalSecurityAgency/DCP/index"
	"github.com/NationalSecurityAgency/DCP/record"
)

func openRoot(t *testing.T) (*fshandle.Dir, string) {
	t.Helper()
	dir := t.TempDir()
	h, err := fshandle.Open(dir)
	if err != nil {
		t.Fatalf("fshandle.Open: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h, dir
}

func statOf(t *testing.T, path string) *Stat {
	t.Helper()
	fi, err := os.Lstat(path)
	if err != nil {
		t.Fatalf("Lstat: %v", err)
	}
	st, err := StatFromFileInfo(fi)
	if err != nil {
		t.Fatalf("StatFromFileInfo: %v", err)
	}
	return st
}

func TestCreateDirectoryAndDirectoryChown(t *testing.T) {
	root, _ := openRoot(t)
	pathmd5 := md5.Sum([]byte("/sub"))

	e := CreateDirectory(root, "sub", pathmd5, "/sub", nil, time.Now())
	if e.State != record.DirCreated {
		t.Fatalf("State = %v, want DirCreated", e.State)
	}

	// creating again must not report failure (EEXIST is tolerated)
	e2 := CreateDirectory(root, "sub", pathmd5, "/sub", nil, time.Now())
	if e2.State != record.DirCreated {
		t.Fatalf("second CreateDirectory State = %v, want DirCreated", e2.State)
	}

	st := statOf(t, filepath.Join(root.Path(), "sub"))
	opts := &Options{UID: -1, GID: -1}
	if err := Directory(root, "sub", st, opts); err != nil {
		t.Fatalf("Directory: %v", err)
	}
}

func TestSymlinkRoundTrip(t *testing.T) {
	root, dir := openRoot(t)
	target := filepath.Join(dir, "target")
	if err := os.WriteFile(target, []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}
	srcLink := filepath.Join(dir, "srclink")
	if err := os.Symlink(target, srcLink); err != nil {
		t.Fatal(err)
	}

	st := statOf(t, srcLink)
	pathmd5 := md5.Sum([]byte("/link"))
	e := Symlink(root, "link", srcLink, pathmd5, "/link", st, time.Now())
	if e.State != record.SymlinkCreated {
		t.Fatalf("State = %v, want SymlinkCreated", e.State)
	}
	if e.SymlinkTarget != target {
		t.Fatalf("SymlinkTarget = %q, want %q", e.SymlinkTarget, target)
	}

	got, err := os.Readlink(filepath.Join(dir, "link"))
	if err != nil {
		t.Fatalf("Readlink: %v", err)
	}
	if got != target {
		t.Fatalf("created link target = %q, want %q", got, target)
	}
}

func TestRegularNoIndex(t *testing.T) {
	root, dir := openRoot(t)
	src := filepath.Join(dir, "src.txt")
	content := []byte("hello, world")
	if err := os.WriteFile(src, content, 0644); err != nil {
		t.Fatal(err)
	}

	st := statOf(t, src)
	pathmd5 := md5.Sum([]byte("/src.txt"))
	opts := &Options{Digests: digest.MaskFor(digest.SHA256), UID: -1, GID: -1, Buffer: make([]byte, 64)}

	e, err := Regular(root, "out.txt", src, pathmd5, "/src.txt", st, opts)
	if err != nil {
		t.Fatalf("Regular: %v", err)
	}
	if e.State != record.FileCopied {
		t.Fatalf("State = %v, want FileCopied", e.State)
	}
	got, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("copied content = %q, want %q", got, content)
	}
	if !e.HasDigest(digest.SHA256) {
		t.Fatal("expected sha256 digest to be present")
	}
}

func TestRegularWithIndexSkipsDuplicate(t *testing.T) {
	root, dir := openRoot(t)
	src := filepath.Join(dir, "src.txt")
	content := []byte("duplicate content")
	if err := os.WriteFile(src, content, 0644); err != nil {
		t.Fatal(err)
	}
	st := statOf(t, src)
	pathmd5 := md5.Sum([]byte("/src.txt"))

	idx := index.New(digest.SHA256)
	opts := &Options{Digests: digest.MaskFor(digest.SHA256), UID: -1, GID: -1, Buffer: make([]byte, 4096), Index: idx}

	e1, err := Regular(root, "out1.txt", src, pathmd5, "/src.txt", st, opts)
	if err != nil {
		t.Fatalf("Regular (first): %v", err)
	}
	if e1 == nil || e1.State != record.FileCopied {
		t.Fatalf("first copy should succeed, got %+v", e1)
	}

	e2, err := Regular(root, "out2.txt", src, pathmd5, "/src.txt", st, opts)
	if err != nil {
		t.Fatalf("Regular (second): %v", err)
	}
	if e2 != nil {
		t.Fatalf("second copy of identical (pathmd5, digest) should be skipped, got %+v", e2)
	}
	if _, err := os.Stat(filepath.Join(dir, "out2.txt")); err == nil {
		t.Fatal("out2.txt should not have been created on a dedup hit")
	}
}

func TestRegularWithIndexLargerThanBuffer(t *testing.T) {
	root, dir := openRoot(t)
	src := filepath.Join(dir, "big.txt")
	content := make([]byte, 1000)
	for i := range content {
		content[i] = byte(i % 251)
	}
	if err := os.WriteFile(src, content, 0644); err != nil {
		t.Fatal(err)
	}
	st := statOf(t, src)
	pathmd5 := md5.Sum([]byte("/big.txt"))

	idx := index.New(digest.SHA256)
	// deliberately smaller than the file to force the rollover/reseek path
	opts := &Options{Digests: digest.MaskFor(digest.SHA256), UID: -1, GID: -1, Buffer: make([]byte, 64), Index: idx}

	e, err := Regular(root, "big-out.txt", src, pathmd5, "/big.txt", st, opts)
	if err != nil {
		t.Fatalf("Regular: %v", err)
	}
	if e == nil || e.State != record.FileCopied {
		t.Fatalf("expected FileCopied, got %+v", e)
	}
	got, err := os.ReadFile(filepath.Join(dir, "big-out.txt"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != len(content) {
		t.Fatalf("copied %d bytes, want %d", len(got), len(content))
	}
	for i := range content {
		if got[i] != content[i] {
			t.Fatalf("byte %d mismatch: got %d want %d", i, got[i], content[i])
		}
	}
}

func TestPreProcessRemovesExistingFile(t *testing.T) {
	root, dir := openRoot(t)
	existing := filepath.Join(dir, "victim")
	if err := os.WriteFile(existing, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := PreProcess(root, "victim", "/src/victim", false, false); err != nil {
		t.Fatalf("PreProcess: %v", err)
	}
	if _, err := os.Stat(existing); !os.IsNotExist(err) {
		t.Fatal("expected the pre-existing destination to be removed")
	}
}

func TestPreProcessRejectsDirOverFile(t *testing.T) {
	root, dir := openRoot(t)
	if err := os.WriteFile(filepath.Join(dir, "x"), []byte("y"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := PreProcess(root, "x", "/src/x", true, false); err == nil {
		t.Fatal("expected error overwriting a file with a directory")
	}
}
