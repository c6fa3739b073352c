// SPDX-License-Identifier: MIT

// Package archive assembles named byte streams into a single zip blob
// held in memory.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
)

type entry struct {
	name string
	data []byte
}

// Builder accumulates entries and finalizes them into one zip exactly
// once. Adding an entry under an existing name replaces the earlier
// entry's bytes (last-write-wins, matching zip extraction semantics);
// duplicates are deliberately not rejected.
type Builder struct {
	entries   []entry
	index     map[string]int
	finalized bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[string]int)}
}

// AddEntry records data under name. Entries keep insertion order; a
// repeated name overwrites the earlier entry in place.
func (b *Builder) AddEntry(name string, data []byte) error {
	if b.finalized {
		return fmt.Errorf("archive already finalized")
	}
	if name == "" {
		return fmt.Errorf("empty entry name")
	}
	if i, ok := b.index[name]; ok {
		b.entries[i].data = data
		return nil
	}
	b.index[name] = len(b.entries)
	b.entries = append(b.entries, entry{name: name, data: data})
	return nil
}

// Len returns the number of distinct entries added so far.
func (b *Builder) Len() int {
	return len(b.entries)
}

// Finalize writes all entries into a zip and freezes the builder. It may
// be called exactly once; an empty builder yields a valid empty archive.
func (b *Builder) Finalize() ([]byte, error) {
	if b.finalized {
		return nil, fmt.Errorf("archive already finalized")
	}
	b.finalized = true

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range b.entries {
		w, err := zw.Create(e.name)
		if err != nil {
			return nil, fmt.Errorf("create zip entry %q: %w", e.name, err)
		}
		if _, err := w.Write(e.data); err != nil {
			return nil, fmt.Errorf("write zip entry %q: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}
