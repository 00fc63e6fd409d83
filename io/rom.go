package io

import (
	"iter"
	"slices"
)

// Rom is a read-only channel holding a program image.
type Rom struct {
	Data []uint8
}

var _ Channel = (*Rom)(nil)

// Rewind is a no-op; every Receive starts from the first byte.
func (rc *Rom) Rewind() {
}

// Receive yields the image, one byte per address.
func (rc *Rom) Receive() iter.Seq[uint8] {
	return slices.Values(rc.Data)
}

// Send always fails, a ROM cannot be written.
func (rc *Rom) Send(value uint8) error {
	return ErrChannelFull
}
