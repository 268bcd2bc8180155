// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package process

import (
	"time"

	"github.com/NationalSecurityAgency/DCP/digest"
	"github.com/NationalSecurityAgency/DCP/record"
)

// newEntry builds the common skeleton of a record.Entry shared by every
// processor: the path identity, the source stat snapshot, and elapsed
// processing time.
func newEntry(pathmd5 [16]byte, path string, st *Stat, state record.State, start time.Time) *record.Entry {
	e := &record.Entry{
		PathMD5:   pathmd5,
		State:     state,
		Path:      path,
		ElapsedMS: time.Since(start).Milliseconds(),
	}
	if st != nil {
		e.HasStat = true
		e.UID = st.UID
		e.GID = st.GID
		e.Mode = st.Mode
		e.Size = st.Size
		e.ASec, e.ANSec = st.ASec, st.ANSec
		e.MSec, e.MNSec = st.MSec, st.MNSec
		e.CSec, e.CNSec = st.CSec, st.CNSec
		e.Type = record.TypeFromMode(st.Mode)
	}
	return e
}

func fillDigests(e *record.Entry, set *digest.Set) {
	for _, tag := range []digest.Tag{digest.MD5, digest.SHA1, digest.SHA256, digest.SHA512} {
		if set.Has(tag) {
			e.SetDigest(tag, set.Value(tag))
		}
	}
}
