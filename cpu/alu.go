package cpu

// Alu performs an arithmetic or comparison operation on two registers.
//
// ADD and MUL replace reg_a with the result, modulo 256. CMP replaces the
// flags with exactly one of FLAG_LT, FLAG_GT or FLAG_EQ. Any other opcode
// is a caller bug and panics with ErrAluOp.
func (cpu *Cpu) Alu(op Opcode, reg_a, reg_b uint8) {
	a := cpu.Register[reg_a]
	b := cpu.Register[reg_b]

	switch op {
	case OP_ADD:
		cpu.Register[reg_a] = a + b
	case OP_MUL:
		cpu.Register[reg_a] = a * b
	case OP_CMP:
		switch {
		case a < b:
			cpu.Flags = FLAG_LT
		case a > b:
			cpu.Flags = FLAG_GT
		default:
			cpu.Flags = FLAG_EQ
		}
	default:
		panic(ErrAluOp(op))
	}
}
