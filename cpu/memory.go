package cpu

import (
	"iter"
)

const (
	MEMORY_SIZE = 256 // Bytes of addressable memory.
)

// Memory is the flat, byte addressable LS-8 address space. Program text,
// data and the stack all share it; addresses wrap at MEMORY_SIZE.
type Memory [MEMORY_SIZE]uint8

// Read returns the byte at addr.
func (mem *Memory) Read(addr uint8) uint8 {
	return mem[addr]
}

// Write stores value at addr.
func (mem *Memory) Write(addr uint8, value uint8) {
	mem[addr] = value
}

// Reset zeros all of memory.
func (mem *Memory) Reset() {
	clear(mem[:])
}

// Window yields count consecutive (address, value) pairs starting at addr,
// wrapping past the top of memory.
func (mem *Memory) Window(addr uint8, count int) iter.Seq2[uint8, uint8] {
	return func(yield func(addr uint8, value uint8) bool) {
		for n := range min(count, MEMORY_SIZE) {
			at := addr + uint8(n)
			if !yield(at, mem[at]) {
				return
			}
		}
	}
}
