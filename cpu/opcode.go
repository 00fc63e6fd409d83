package cpu

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"
)

// Opcode is the first byte of every LS-8 instruction.
//
// The byte is laid out as AABCDDDD: AA is the operand count, B is set for
// ALU operations, C is set for instructions that assign the program counter,
// and DDDD identifies the instruction within its group.
type Opcode uint8

const (
	OP_HLT  = Opcode(0b00000001) // hlt
	OP_RET  = Opcode(0b00010001) // ret
	OP_PUSH = Opcode(0b01000101) // push
	OP_POP  = Opcode(0b01000110) // pop
	OP_PRN  = Opcode(0b01000111) // prn
	OP_PRA  = Opcode(0b01001000) // pra
	OP_CALL = Opcode(0b01010000) // call
	OP_JMP  = Opcode(0b01010100) // jmp
	OP_JEQ  = Opcode(0b01010101) // jeq
	OP_JNE  = Opcode(0b01010110) // jne
	OP_LDI  = Opcode(0b10000010) // ldi
	OP_ST   = Opcode(0b10000100) // st
	OP_ADD  = Opcode(0b10100000) // add
	OP_MUL  = Opcode(0b10100010) // mul
	OP_CMP  = Opcode(0b10100111) // cmp
)

const (
	OPCODE_OPERANDS_SHIFT = 6
	OPCODE_ALU            = Opcode(1 << 5)
	OPCODE_SETS_PC        = Opcode(1 << 4)
)

// OperandKind says how an operand byte is interpreted.
type OperandKind int

const (
	OPERAND_REG = OperandKind(0) // reg
	OPERAND_IMM = OperandKind(1) // imm
)

type opcodeInfo struct {
	name     string
	operands []OperandKind
}

var opcodeTable = map[Opcode]opcodeInfo{
	OP_HLT:  {"hlt", nil},
	OP_RET:  {"ret", nil},
	OP_PUSH: {"push", []OperandKind{OPERAND_REG}},
	OP_POP:  {"pop", []OperandKind{OPERAND_REG}},
	OP_PRN:  {"prn", []OperandKind{OPERAND_REG}},
	OP_PRA:  {"pra", []OperandKind{OPERAND_REG}},
	OP_CALL: {"call", []OperandKind{OPERAND_REG}},
	OP_JMP:  {"jmp", []OperandKind{OPERAND_REG}},
	OP_JEQ:  {"jeq", []OperandKind{OPERAND_REG}},
	OP_JNE:  {"jne", []OperandKind{OPERAND_REG}},
	OP_LDI:  {"ldi", []OperandKind{OPERAND_REG, OPERAND_IMM}},
	OP_ST:   {"st", []OperandKind{OPERAND_REG, OPERAND_REG}},
	OP_ADD:  {"add", []OperandKind{OPERAND_REG, OPERAND_REG}},
	OP_MUL:  {"mul", []OperandKind{OPERAND_REG, OPERAND_REG}},
	OP_CMP:  {"cmp", []OperandKind{OPERAND_REG, OPERAND_REG}},
}

// Opcodes returns all decodable opcodes in ascending order.
func Opcodes() iter.Seq[Opcode] {
	return slices.Values(slices.Sorted(maps.Keys(opcodeTable)))
}

// OpcodeByName looks up an opcode by its mnemonic, ignoring case.
func OpcodeByName(name string) (op Opcode, ok bool) {
	name = strings.ToLower(name)
	for code, info := range opcodeTable {
		if info.name == name {
			return code, true
		}
	}
	return
}

// Known is true if the opcode is in the dispatch table.
func (op Opcode) Known() bool {
	_, ok := opcodeTable[op]
	return ok
}

// Operands returns the number of operand bytes that follow the opcode.
func (op Opcode) Operands() int {
	return int(op >> OPCODE_OPERANDS_SHIFT)
}

// Width returns the encoded length of the instruction, opcode included.
func (op Opcode) Width() uint8 {
	return uint8(op.Operands()) + 1
}

// IsAlu is true for opcodes handled by the ALU.
func (op Opcode) IsAlu() bool {
	return op&OPCODE_ALU != 0
}

// SetsPc is true for opcodes that may assign the program counter.
func (op Opcode) SetsPc() bool {
	return op&OPCODE_SETS_PC != 0
}

// OperandKinds returns the operand layout, or nil for unknown opcodes.
func (op Opcode) OperandKinds() []OperandKind {
	return opcodeTable[op].operands
}

// String returns the upper case mnemonic.
func (op Opcode) String() string {
	info, ok := opcodeTable[op]
	if !ok {
		return fmt.Sprintf("Opcode(0b%08b)", uint8(op))
	}
	return strings.ToUpper(info.name)
}

// Code is a fetched instruction: the opcode and its operand bytes.
type Code struct {
	Op       Opcode
	Operands []uint8
}

// Width returns the encoded length of the instruction.
func (code Code) Width() uint8 {
	return code.Op.Width()
}

// operand returns the n'th operand byte, or zero if it was not fetched.
func (code Code) operand(n int) uint8 {
	if n >= len(code.Operands) {
		return 0
	}
	return code.Operands[n]
}

// String returns the assembly language representation of this instruction.
func (code Code) String() string {
	words := []string{code.Op.String()}
	kinds := code.Op.OperandKinds()
	for n, value := range code.Operands {
		switch {
		case n < len(kinds) && kinds[n] == OPERAND_REG:
			words = append(words, fmt.Sprintf("r%d", value))
		case n < len(kinds):
			words = append(words, fmt.Sprintf("%d", value))
		default:
			words = append(words, fmt.Sprintf("0x%02x", value))
		}
	}
	return strings.Join(words, " ")
}
