// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"fmt"
	"iter"
	"maps"

	"github.com/ezrec/ls8/cpu"
	"github.com/ezrec/ls8/internal"
	"github.com/ezrec/ls8/io"
)

var _emulator_defines = map[string]string{
	"REG_SP": fmt.Sprintf("%d", cpu.REG_SP),
}

// Emulator state. CPU + program + IO channels.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently loaded program.

	Rom       io.Rom  // Boot image channel.
	Numeric   io.Tape // PRN and ST output.
	Character io.Tape // PRA output.
}

// NewEmulator creates a new emulator with its channels attached.
// Both tapes have no output until the caller sets one.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(),
		Program: &cpu.Program{},
	}

	emu.Numeric.Format = io.TAPE_FORMAT_DECIMAL
	emu.Character.Format = io.TAPE_FORMAT_CHAR

	emu.Cpu.SetChannel(cpu.CHANNEL_ID_BOOT, &emu.Rom)
	emu.Cpu.SetChannel(cpu.CHANNEL_ID_NUMERIC, &emu.Numeric)
	emu.Cpu.SetChannel(cpu.CHANNEL_ID_CHARACTER, &emu.Character)

	return
}

// opcodeDefines yields every mnemonic as an "OP_<MNEMONIC>" define.
func opcodeDefines() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for op := range cpu.Opcodes() {
			if !yield("OP_"+op.String(), fmt.Sprintf("%d", uint8(op))) {
				return
			}
		}
	}
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
		opcodeDefines(),
	)
}

// Assembler returns an assembler with the emulator defines predefined.
func (emu *Emulator) Assembler() (asm *cpu.Assembler) {
	asm = &cpu.Assembler{Verbose: emu.Verbose}
	for equ, value := range emu.Defines() {
		asm.Predefine(equ, value)
	}

	return
}

// Reset the machine and boot the current program.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose

	emu.Rom.Data = emu.Program.Binary()

	return emu.Cpu.Reset(cpu.CHANNEL_ID_BOOT)
}

// Ticks returns the number of instructions executed since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Pc returns the current program counter.
func (emu *Emulator) Pc() int {
	return int(emu.Cpu.Pc)
}

// Code returns the instruction at the program counter.
func (emu *Emulator) Code() (code cpu.Code) {
	code, _ = emu.Cpu.FetchCode()
	return
}

// LineNo returns the source line number for the executing instruction, or
// 0 if the program counter is outside of the program.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Line == nil {
		return 0
	}

	return dbg.LineNo
}

// Tick performs a single instruction. done is set once the machine halts.
func (emu *Emulator) Tick() (done bool, err error) {
	emu.Cpu.Verbose = emu.Verbose

	if emu.Cpu.Halted {
		done = true
		return
	}

	pc := emu.Cpu.Pc
	lineno := emu.LineNo()
	defer func() {
		if r := recover(); r != nil {
			err = errors.Join(ErrFault, fmt.Errorf("address %d: %v", pc, r))
		}
		if err != nil {
			err = &ErrRuntime{Pc: pc, LineNo: lineno, Err: err}
			return
		}
		done = emu.Cpu.Halted
	}()

	err = emu.Cpu.Tick()

	return
}

// Run ticks the machine until it halts or fails.
func (emu *Emulator) Run() (err error) {
	var done bool
	for !done {
		done, err = emu.Tick()
		if err != nil {
			return
		}
	}

	return
}
