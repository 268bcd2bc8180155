// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package streamio provides the full-read, full-write and pipe-through-
// buffer primitives the regular-file processor uses to stream a file's
// bytes while digesting them in the same pass.
//
// Go's os.File already retries on EINTR internally, so unlike the
// reference implementation's fd_read/fd_write wrappers, these helpers
// exist to pin down the buffer-reuse contract (one caller-owned buffer,
// allocated once per run and reused for every file) rather than to
// re-implement signal-interrupted-syscall retry.
package streamio

import (
	"io"
	"os"
)

// ReadFull reads from r until buf is full or EOF, returning the number of
// bytes read. Unlike io.ReadFull, reaching EOF before buf is full is not
// an error: the short count is returned with a nil error.
func ReadFull(r io.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(r, buf)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		err = nil
	}
	return n, err
}

// WriteFull writes every byte of buf to w with a single Write call; the
// io.Writer contract makes a short write return a non-nil error.
func WriteFull(w io.Writer, buf []byte) error {
	_, err := w.Write(buf)
	return err
}

// Pipe copies all remaining bytes from src to dst using buf as the
// transfer buffer, looping read-then-write until src reaches EOF.
func Pipe(dst io.Writer, src io.Reader, buf []byte) error {
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if werr := WriteFull(dst, buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Advise hints that f will be read sequentially from start to end,
// mirroring the reference's posix_fadvise(..., POSIX_FADV_SEQUENTIAL)
// call before streaming a source file. Best effort: failures are ignored
// here, since the hint is purely an optimization.
func Advise(f *os.File) {
	adviseSequential(f)
}
