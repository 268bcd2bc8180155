// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hexcodec packs and unpacks the lowercase hex strings used
// throughout DCP's record format for digests and path hashes.
package hexcodec

import (
	"encoding/hex"
	"fmt"
)

// Pack decodes an even-length hex string (upper- or lowercase) into dest,
// which must be at least len(s)/2 bytes. line is used only to annotate the
// error returned for corrupt input. Empty input packs zero bytes.
func Pack(dest []byte, s string, line int) (int, error) {
	if len(s) == 0 {
		return 0, nil
	}
	if len(s)%2 != 0 {
		return 0, fmt.Errorf("corrupt input on line %d: odd-length hex string %q", line, s)
	}
	n, err := hex.Decode(dest, []byte(s))
	if err != nil {
		return 0, fmt.Errorf("corrupt input on line %d: %w", line, err)
	}
	return n, nil
}

// Unpack writes exactly 2*len(src) lowercase hex characters representing
// src. There is no error path: any byte slice is valid input.
func Unpack(src []byte) string {
	return hex.EncodeToString(src)
}
