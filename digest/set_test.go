// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package digest

import (
	"crypto/md5"
	"crypto/sha256"
	"testing"
)

func TestSetFanout(t *testing.T) {
	mask := MaskFor(MD5) | MaskFor(SHA256)
	s := NewSet(mask)

	if !s.Has(MD5) || !s.Has(SHA256) {
		t.Fatal("set missing requested tags")
	}
	if s.Has(SHA1) || s.Has(SHA512) {
		t.Fatal("set contains unrequested tags")
	}

	data := []byte("the quick brown fox")
	s.Update(data)
	s.Finalize()

	wantMD5 := md5.Sum(data)
	wantSHA256 := sha256.Sum256(data)

	if got := s.Value(MD5); string(got) != string(wantMD5[:]) {
		t.Errorf("MD5 = %x, want %x", got, wantMD5)
	}
	if got := s.Value(SHA256); string(got) != string(wantSHA256[:]) {
		t.Errorf("SHA256 = %x, want %x", got, wantSHA256)
	}
	if got := s.Value(SHA1); got != nil {
		t.Errorf("SHA1 = %x, want nil (not requested)", got)
	}
}

func TestSetValueBeforeFinalize(t *testing.T) {
	s := NewSet(MaskFor(SHA1))
	s.Update([]byte("data"))
	if v := s.Value(SHA1); v != nil {
		t.Errorf("Value before Finalize = %x, want nil", v)
	}
}

func TestEffectiveMaskAugmentsIndexKeyTag(t *testing.T) {
	userMask := MaskFor(SHA256)
	indexKeyTag := MD5
	effective := userMask | MaskFor(indexKeyTag)

	s := NewSet(effective)
	if !s.Has(SHA256) || !s.Has(MD5) {
		t.Fatal("effective mask should include both user and index-key digests")
	}
}
