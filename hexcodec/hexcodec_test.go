// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hexcodec

import "testing"

func TestRoundTrip(t *testing.T) {
	cases := []string{"", "ab", "deadbeef", "00ff10"}
	for _, s := range cases {
		dest := make([]byte, len(s)/2)
		n, err := Pack(dest, s, 1)
		if err != nil {
			t.Fatalf("Pack(%q): %v", s, err)
		}
		got := Unpack(dest[:n])
		if got != s {
			t.Errorf("round trip of %q = %q", s, got)
		}
	}
}

func TestPackUppercase(t *testing.T) {
	dest := make([]byte, 2)
	n, err := Pack(dest, "DEAD", 1)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if got := Unpack(dest[:n]); got != "dead" {
		t.Errorf("Unpack = %q, want lowercase dead", got)
	}
}

func TestPackOddLength(t *testing.T) {
	dest := make([]byte, 4)
	if _, err := Pack(dest, "abc", 7); err == nil {
		t.Fatal("Pack of odd-length hex succeeded, want error")
	}
}

func TestPackNonHex(t *testing.T) {
	dest := make([]byte, 4)
	if _, err := Pack(dest, "zzzz", 3); err == nil {
		t.Fatal("Pack of non-hex input succeeded, want error")
	}
}
