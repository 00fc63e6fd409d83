package cpu

import (
	"fmt"
	"iter"
	"log"
	"maps"
	"strings"

	"github.com/ezrec/ls8/io"
)

// Channel is an I/O channel interface.
type Channel io.Channel

const (
	REGISTER_COUNT = 8           // General purpose registers.
	REG_SP         = 7           // Register used as the stack pointer.
	SP_INIT        = uint8(0xF4) // Stack pointer value after reset.
)

// Comparison flags, set by CMP. Exactly one is set after a comparison.
const (
	FLAG_EQ   = uint8(1 << 0)
	FLAG_GT   = uint8(1 << 1)
	FLAG_LT   = uint8(1 << 2)
	FLAG_MASK = FLAG_EQ | FLAG_GT | FLAG_LT
)

// CodeChannel is an IO channel index type.
type CodeChannel int

const (
	CHANNEL_ID_BOOT      = CodeChannel(0) // boot
	CHANNEL_ID_NUMERIC   = CodeChannel(1) // numeric
	CHANNEL_ID_CHARACTER = CodeChannel(2) // character
	CHANNEL_COUNT        = 3
)

var _cpu_defines = map[string]string{
	"MEMORY_SIZE": fmt.Sprintf("%d", MEMORY_SIZE),
	"SP_INIT":     fmt.Sprintf("0x%02x", SP_INIT),
	"FLAG_EQ":     fmt.Sprintf("%d", FLAG_EQ),
	"FLAG_GT":     fmt.Sprintf("%d", FLAG_GT),
	"FLAG_LT":     fmt.Sprintf("%d", FLAG_LT),
}

// Cpu is the LS-8 machine state.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Pc       uint8                 // Program counter.
	Register [REGISTER_COUNT]uint8 // Register file; REG_SP is the stack pointer.
	Memory   Memory                // Program, data and stack.
	Flags    uint8                 // Result of the last CMP.
	Halted   bool                  // Set by HLT.

	Ticks int // Instructions executed since reset.

	channel [CHANNEL_COUNT]Channel // IO channels.
}

// NewCpu creates a CPU in its reset state, with no channels attached.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{}
	cpu.clear()

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// String returns a one line trace of the CPU state: the program counter,
// the three bytes at it, the register file and the flags.
func (cpu *Cpu) String() string {
	var text strings.Builder

	fmt.Fprintf(&text, "TRACE: %02X | %02X %02X %02X |",
		cpu.Pc,
		cpu.Memory.Read(cpu.Pc),
		cpu.Memory.Read(cpu.Pc+1),
		cpu.Memory.Read(cpu.Pc+2),
	)
	for _, reg := range cpu.Register {
		fmt.Fprintf(&text, " %02X", reg)
	}
	fmt.Fprintf(&text, " | %03b", cpu.Flags)

	return text.String()
}

func (cpu *Cpu) clear() {
	clear(cpu.Register[:])
	cpu.Register[REG_SP] = SP_INIT
	cpu.Memory.Reset()
	cpu.Pc = 0
	cpu.Flags = 0
	cpu.Halted = false
	cpu.Ticks = 0
}

// Reset the CPU state.
//   - Clears the registers, flags and memory.
//   - Sets the stack pointer to SP_INIT.
//   - Rewinds all IO channels.
//   - Copies the boot channel into memory, starting at address 0.
func (cpu *Cpu) Reset(boot CodeChannel) (err error) {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	cpu.clear()

	for _, channel := range cpu.channel {
		if channel == nil {
			continue
		}
		channel.Rewind()
	}

	rom, err := cpu.GetChannel(boot)
	if err != nil {
		return
	}

	addr := 0
	for value := range rom.Receive() {
		if addr >= MEMORY_SIZE {
			err = ErrProgramTooLarge
			return
		}
		cpu.Memory.Write(uint8(addr), value)
		addr++
	}

	if cpu.Verbose {
		log.Printf("cpu: boot %d bytes from channel %v", addr, boot)
	}

	return
}

// SetChannel sets a channel index to a channel simulation model.
func (cpu *Cpu) SetChannel(index CodeChannel, channel Channel) {
	cpu.channel[int(index)] = channel
}

// GetChannel gets the channel simulation model by index.
func (cpu *Cpu) GetChannel(ch CodeChannel) (channel Channel, err error) {
	index := int(ch)
	if index < 0 || index >= len(cpu.channel) || cpu.channel[index] == nil {
		err = ErrChannelInvalid
		return
	}

	channel = cpu.channel[index]
	return
}

// send writes a register value to an output channel.
func (cpu *Cpu) send(ch CodeChannel, value uint8) (err error) {
	channel, err := cpu.GetChannel(ch)
	if err != nil {
		return
	}

	return channel.Send(value)
}

// FetchCode reads the instruction at the program counter. Operand bytes are
// read relative to the current program counter, wrapping at the top of
// memory.
func (cpu *Cpu) FetchCode() (code Code, err error) {
	if cpu.Halted {
		err = ErrHalted
		return
	}

	code.Op = Opcode(cpu.Memory.Read(cpu.Pc))
	for n := range code.Op.Operands() {
		code.Operands = append(code.Operands, cpu.Memory.Read(cpu.Pc+1+uint8(n)))
	}

	return
}

// Tick executes a single CPU instruction cycle.
func (cpu *Cpu) Tick() (err error) {
	code, err := cpu.FetchCode()
	if err != nil {
		return
	}

	return cpu.Execute(code)
}

// Execute executes a single decoded instruction located at the program
// counter. On error the machine state is left untouched and the program
// counter is not advanced.
//
// Register operands are not range checked: an index past REG_SP is a
// programming error in the loaded image and panics.
func (cpu *Cpu) Execute(code Code) (err error) {
	defer func() {
		if err != nil {
			err = &ErrOpcode{Pc: cpu.Pc, Code: code, Err: err}
		}
	}()

	if cpu.Verbose {
		log.Printf("%v | %v", cpu.String(), code)
	}

	next_pc := cpu.Pc + code.Width()

	reg_a := code.operand(0)
	reg_b := code.operand(1)

	switch code.Op {
	case OP_HLT:
		cpu.Halted = true
	case OP_LDI:
		cpu.Register[reg_a] = reg_b
	case OP_PRN:
		err = cpu.send(CHANNEL_ID_NUMERIC, cpu.Register[reg_a])
	case OP_PRA:
		err = cpu.send(CHANNEL_ID_CHARACTER, cpu.Register[reg_a])
	case OP_ST:
		// ST prints its first register rather than storing to memory.
		// Kept as-is so existing programs see the same output.
		err = cpu.send(CHANNEL_ID_NUMERIC, cpu.Register[reg_a])
	case OP_PUSH:
		cpu.Push(cpu.Register[reg_a])
	case OP_POP:
		cpu.Register[reg_a] = cpu.Pop()
	case OP_CALL:
		// Return to the instruction after CALL, at pc + 2.
		cpu.Push(next_pc)
		next_pc = cpu.Register[reg_a]
	case OP_RET:
		next_pc = cpu.Pop()
	case OP_JMP:
		next_pc = cpu.Register[reg_a]
	case OP_JEQ:
		if cpu.Flags&FLAG_EQ != 0 {
			next_pc = cpu.Register[reg_a]
		}
	case OP_JNE:
		if cpu.Flags&FLAG_EQ == 0 {
			next_pc = cpu.Register[reg_a]
		}
	default:
		if !code.Op.Known() || !code.Op.IsAlu() {
			err = ErrOpcodeUnknown
			return
		}
		cpu.Alu(code.Op, reg_a, reg_b)
	}

	if err != nil {
		return
	}

	cpu.Pc = next_pc
	cpu.Ticks++

	return
}
