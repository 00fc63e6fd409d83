// Package io provides the I/O channels attached to the LS-8 CPU.
// A channel moves whole bytes: the boot ROM (Rom) feeds the program image
// into memory at reset, and the print tapes (Tape) receive the values
// written by the PRN, PRA and ST instructions.
package io

import (
	"iter"
)

// Channel defines the interface for all I/O channels in the LS-8 system.
type Channel interface {
	// Rewind resets the channel to its initial state.
	Rewind()
	// Receive returns an iterator that yields bytes from the channel.
	Receive() iter.Seq[uint8]
	// Send writes a single byte to the channel.
	Send(value uint8) error
}
