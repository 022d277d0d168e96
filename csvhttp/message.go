// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package csvhttp

// Message is one complete CSV document: ordered blocks plus the response
// options, a download filename and a BOM flag. Blocks are fixed at
// construction; only the two options are settable afterwards.
type Message struct {
	blocks   []MessageBlock
	filename string
	withBOM  bool
}

// NewMessage returns a message over the given blocks. The block list must
// not be nil; an empty non-nil list is a valid, empty document. Nil
// entries inside the list are rejected later, at write time, before any
// output.
func NewMessage(blocks []MessageBlock) (*Message, error) {
	if blocks == nil {
		return nil, ErrNoBlocks
	}
	return &Message{blocks: append([]MessageBlock(nil), blocks...)}, nil
}

// Blocks returns the message blocks in serialization order.
func (m *Message) Blocks() []MessageBlock {
	return append([]MessageBlock(nil), m.blocks...)
}

// SetFilename sets the download filename offered to the client and
// returns m for chaining. An empty name means no download disposition.
func (m *Message) SetFilename(name string) *Message {
	m.filename = name
	return m
}

// Filename returns the download filename, empty when none is set.
func (m *Message) Filename() string { return m.filename }

// SetWithBOM controls whether a byte order mark opens the response body
// and returns m for chaining.
func (m *Message) SetWithBOM(withBOM bool) *Message {
	m.withBOM = withBOM
	return m
}

// WithBOM reports whether the message requests a byte order mark.
func (m *Message) WithBOM() bool { return m.withBOM }
