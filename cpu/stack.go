package cpu

// The stack lives in Memory, below SP_INIT, and grows down. Nothing stops
// it from running into program text or wrapping past address 0.

// Push decrements the stack pointer and stores value at the new top.
func (cpu *Cpu) Push(value uint8) {
	cpu.Register[REG_SP]--
	cpu.Memory.Write(cpu.Register[REG_SP], value)
}

// Pop loads the value at the top of the stack and increments the stack
// pointer.
func (cpu *Cpu) Pop() (value uint8) {
	value = cpu.Peek()
	cpu.Register[REG_SP]++
	return
}

// Peek returns the value at the top of the stack.
func (cpu *Cpu) Peek() uint8 {
	return cpu.Memory.Read(cpu.Register[REG_SP])
}

// StackDepth returns the number of bytes pushed below SP_INIT.
func (cpu *Cpu) StackDepth() int {
	return int(SP_INIT - cpu.Register[REG_SP])
}
