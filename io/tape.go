package io

import (
	"fmt"
	"io"
	"iter"
)

// TapeFormat selects how a Tape renders each byte it is sent.
type TapeFormat int

const (
	TAPE_FORMAT_DECIMAL = TapeFormat(0) // decimal
	TAPE_FORMAT_CHAR    = TapeFormat(1) // char
)

// String returns the name of the format.
func (tf TapeFormat) String() string {
	switch tf {
	case TAPE_FORMAT_DECIMAL:
		return "decimal"
	case TAPE_FORMAT_CHAR:
		return "char"
	}
	return fmt.Sprintf("TapeFormat(%d)", int(tf))
}

// Tape is an output-only channel. Each byte sent becomes one line on Output,
// rendered as a decimal number or as the raw byte itself.
type Tape struct {
	Output io.Writer
	Format TapeFormat

	Sent int // Count of bytes written since the last rewind.
}

var _ Channel = (*Tape)(nil)

// Rewind clears the sent counter; a tape cannot take back what it printed.
func (tc *Tape) Rewind() {
	tc.Sent = 0
}

// Receive yields nothing, tapes are not readable.
func (tc *Tape) Receive() iter.Seq[uint8] {
	return func(yield func(value uint8) bool) {}
}

// Send writes the value as one line in the tape's format.
func (tc *Tape) Send(value uint8) (err error) {
	if tc.Output == nil {
		err = ErrChannelOutput
		return
	}

	switch tc.Format {
	case TAPE_FORMAT_DECIMAL:
		_, err = fmt.Fprintf(tc.Output, "%d\n", value)
	case TAPE_FORMAT_CHAR:
		_, err = tc.Output.Write([]byte{value, '\n'})
	default:
		err = ErrTapeFormat
	}
	if err != nil {
		return
	}

	tc.Sent++

	return
}
