package cpu

import (
	"fmt"
	"io"
	"iter"
)

// Line is one line of program source and the bytes it produced.
type Line struct {
	LineNo int     // Source line number, starting at 1.
	Addr   int     // Address of the first byte in Values.
	Text   string  // Source text, comments removed.
	Values []uint8 // Bytes emitted by the line.
}

// Program is a memory image along with the source lines that built it.
type Program struct {
	Lines []Line
}

// Debug locates the source of a byte in the image.
type Debug struct {
	*Line
	Index int
}

// Debug returns the source line that emitted the byte at addr. The Line is
// nil if no line covers addr.
func (prog *Program) Debug(addr uint8) (dbg Debug) {
	for n, line := range prog.Lines {
		at := int(addr)
		if at >= line.Addr && at < line.Addr+len(line.Values) {
			dbg = Debug{
				Line:  &prog.Lines[n],
				Index: at - line.Addr,
			}
			break
		}
	}

	return
}

// Len returns the size of the image in bytes.
func (prog *Program) Len() (size int) {
	for _, line := range prog.Lines {
		size = max(size, line.Addr+len(line.Values))
	}
	return
}

// Bytes returns an iterator over the (address, value) pairs of the image.
func (prog *Program) Bytes() iter.Seq2[int, uint8] {
	return func(yield func(addr int, value uint8) bool) {
		for _, line := range prog.Lines {
			for n, value := range line.Values {
				if !yield(line.Addr+n, value) {
					return
				}
			}
		}
	}
}

// Binary returns the memory image. Gaps between lines are zero filled.
func (prog *Program) Binary() (bins []uint8) {
	bins = make([]uint8, prog.Len())
	for addr, value := range prog.Bytes() {
		bins[addr] = value
	}

	return
}

// Listing writes the image in loader format: one binary literal per line,
// with the address and source text as a comment on the first byte of each
// source line.
func (prog *Program) Listing(out io.Writer) (err error) {
	for _, line := range prog.Lines {
		for n, value := range line.Values {
			if n == 0 {
				_, err = fmt.Fprintf(out, "%08b # %3d: %v\n", value, line.Addr, line.Text)
			} else {
				_, err = fmt.Fprintf(out, "%08b\n", value)
			}
			if err != nil {
				return
			}
		}
	}

	return
}
