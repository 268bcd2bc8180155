// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package record

import (
	"testing"

	"github.com/NationalSecurityAgency/DCP/digest"
)

func TestTypeFromMode(t *testing.T) {
	cases := []struct {
		mode uint32
		want FileType
	}{
		{0100644, TypeReg},
		{0040755, TypeDir},
		{0120777, TypeSymlink},
		{0020666, TypeChar},
		{0060660, TypeBlock},
		{0010644, TypeFIFO},
		{0140755, TypeSocket},
	}
	for _, c := range cases {
		if got := TypeFromMode(c.mode); got != c.want {
			t.Errorf("TypeFromMode(%o) = %v, want %v", c.mode, got, c.want)
		}
	}
}

func TestEntryDigestRoundTrip(t *testing.T) {
	e := &Entry{}
	if e.HasDigest(digest.SHA256) {
		t.Fatal("fresh entry should have no digests")
	}
	e.SetDigest(digest.SHA256, []byte{1, 2, 3})
	if !e.HasDigest(digest.SHA256) {
		t.Fatal("SetDigest did not register")
	}
	if got := e.DigestMask(); got != digest.MaskFor(digest.SHA256) {
		t.Fatalf("DigestMask = %v, want only SHA256", got)
	}
}

func TestIsRegular(t *testing.T) {
	e := &Entry{HasStat: true, Type: TypeReg}
	if !e.IsRegular() {
		t.Fatal("expected IsRegular true")
	}
	e2 := &Entry{HasStat: false, Type: TypeReg}
	if e2.IsRegular() {
		t.Fatal("IsRegular should require HasStat")
	}
}
