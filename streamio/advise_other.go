// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package streamio

import "os"

func adviseSequential(f *os.File) {
	// No readahead hint is available on this platform.
}
