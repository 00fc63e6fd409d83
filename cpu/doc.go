// Package cpu implements the LS-8 microprocessor, its loader and its
// assembler.
//
// The CPU has eight 8-bit registers (r0-r7, with r7 doubling as the stack
// pointer), a program counter, a comparison flags register and 256 bytes of
// memory shared by code, data and the stack. Instructions are one to three
// bytes; the top two bits of the opcode give the operand count.
//
// Programs are read either as memory images, one binary literal per line,
// by the Loader, or as assembly text by the Assembler, which supports
// macros, labels, equates, and compile-time expression evaluation.
package cpu
