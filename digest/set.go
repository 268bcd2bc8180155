// Copyright 2024 The DCP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package digest

// Set is a fanout of Digesters, one per Tag present in a Mask. Update and
// Finalize broadcast to every Digester the Set holds; Value looks one up
// by Tag, returning nothing unless the Set contains that Tag and it has
// been finalized.
type Set struct {
	mask      Mask
	digesters [numTags]*Digester
}

// NewSet constructs a Set holding one Digester per bit set in mask.
func NewSet(mask Mask) *Set {
	s := &Set{mask: mask}
	for tag := Tag(0); tag < numTags; tag++ {
		if mask.Has(tag) {
			s.digesters[tag] = New(tag)
		}
	}
	return s
}

// Mask returns the mask the Set was constructed with.
func (s *Set) Mask() Mask {
	return s.mask
}

// Update broadcasts bytes to every Digester in the set.
func (s *Set) Update(bytes []byte) {
	for _, d := range s.digesters {
		if d != nil {
			d.Update(bytes)
		}
	}
}

// Finalize finalizes every Digester in the set.
func (s *Set) Finalize() {
	for _, d := range s.digesters {
		if d != nil {
			d.Finalize()
		}
	}
}

// Value returns the finalized bytes for tag, or nil if the set does not
// contain tag or it has not been finalized.
func (s *Set) Value(tag Tag) []byte {
	d := s.digesters[tag]
	if d == nil {
		return nil
	}
	return d.Value()
}

// Has reports whether the set contains a Digester for tag.
func (s *Set) Has(tag Tag) bool {
	return s.digesters[tag] != nil
}
