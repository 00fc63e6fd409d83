package emulator

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/ls8/cpu"
)

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	assert.False(emu.Verbose)
	assert.NotNil(emu.Cpu)
	assert.NotNil(emu.Program)

	for _, ch := range []cpu.CodeChannel{cpu.CHANNEL_ID_BOOT, cpu.CHANNEL_ID_NUMERIC, cpu.CHANNEL_ID_CHARACTER} {
		_, err := emu.Cpu.GetChannel(ch)
		assert.NoError(err)
	}
}

// doAssemble assembles program into the emulator and resets it, sending
// all output to the returned buffer.
func doAssemble(t *testing.T, emu *Emulator, program ...string) (output *bytes.Buffer) {
	prog, err := emu.Assembler().Parse(strings.NewReader(strings.Join(program, "\n")))
	if err != nil {
		t.Fatal(err)
	}
	emu.Program = prog

	err = emu.Reset()
	if err != nil {
		t.Fatal(err)
	}

	output = &bytes.Buffer{}
	emu.Numeric.Output = output
	emu.Character.Output = output

	return
}

func TestEmulator_Run(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name    string
		program []string
		output  string
	}){
		{"print8", []string{
			"LDI r0, 8",
			"PRN r0",
			"HLT",
		}, "8\n"},
		{"mult", []string{
			"LDI r0, 8",
			"LDI r1, 9",
			"MUL r0, r1",
			"PRN r0",
			"HLT",
		}, "72\n"},
		{"pushpop", []string{
			"LDI r0, 5",
			"PUSH r0",
			"LDI r0, 0",
			"POP r0",
			"PRN r0",
			"HLT",
		}, "5\n"},
		{"call", []string{
			"    LDI r0, 2",
			"    LDI r1, 3",
			"    LDI r2, add",
			"    CALL r2",
			"    PRN r0",
			"    HLT",
			"add:",
			"    ADD r0, r1",
			"    RET",
		}, "5\n"},
		{"hello", []string{
			"    LDI r0, 'h'",
			"    PRA r0",
			"    LDI r0, 'i'",
			"    PRA r0",
			"    HLT",
		}, "h\ni\n"},
		{"countdown", []string{
			".equ START 3",
			"    LDI r0, START",
			"    LDI r1, -1 ; decrement",
			"    LDI r2, 0",
			"    LDI r3, loop",
			"loop:",
			"    PRN r0",
			"    ADD r0, r1",
			"    CMP r0, r2",
			"    JNE r3",
			"    HLT",
		}, "3\n2\n1\n"},
	}

	for _, entry := range table {
		emu := NewEmulator()
		output := doAssemble(t, emu, entry.program...)

		err := emu.Run()
		assert.NoError(err, entry.name)
		assert.Equal(entry.output, output.String(), entry.name)
		assert.True(emu.Cpu.Halted, entry.name)

		done, err := emu.Tick()
		assert.True(done)
		assert.NoError(err)
	}
}

func TestEmulator_Loader(t *testing.T) {
	assert := assert.New(t)

	image := []string{
		"# mult.ls8",
		"10000010 # LDI R0,8",
		"00000000",
		"00001000",
		"10000010 # LDI R1,9",
		"00000001",
		"00001001",
		"10100010 # MUL R0,R1",
		"00000000",
		"00000001",
		"01000111 # PRN R0",
		"00000000",
		"00000001 # HLT",
	}

	emu := NewEmulator()
	ld := &cpu.Loader{}
	prog, err := ld.Parse(strings.NewReader(strings.Join(image, "\n")))
	assert.NoError(err)
	emu.Program = prog
	assert.NoError(emu.Reset())

	output := &bytes.Buffer{}
	emu.Numeric.Output = output

	assert.Equal(2, emu.LineNo())
	assert.NoError(emu.Run())
	assert.Equal("72\n", output.String())
	assert.Equal(5, emu.Ticks())

	// A reset reruns the same image from the start.
	assert.NoError(emu.Reset())
	assert.Equal(0, emu.Pc())
	assert.Equal(0, emu.Ticks())
	assert.NoError(emu.Run())
	assert.Equal("72\n72\n", output.String())
}

func TestEmulator_Step(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	output := doAssemble(t, emu,
		"LDI r0, 8",
		"PRN r0",
		"HLT",
	)

	assert.Equal(1, emu.LineNo())
	assert.Equal("LDI r0 8", emu.Code().String())

	done, err := emu.Tick()
	assert.NoError(err)
	assert.False(done)
	assert.Equal(3, emu.Pc())
	assert.Equal(2, emu.LineNo())

	done, err = emu.Tick()
	assert.NoError(err)
	assert.False(done)
	assert.Equal("8\n", output.String())

	done, err = emu.Tick()
	assert.NoError(err)
	assert.True(done)
	assert.Equal(3, emu.Ticks())

	// Past the end of the program.
	assert.Equal(0, emu.LineNo())
}

func TestEmulator_UnknownOpcode(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	output := doAssemble(t, emu,
		"LDI r0, 5",
		"PRN r0",
		".byte 0",
		"PRN r0",
		"HLT",
	)

	err := emu.Run()
	assert.ErrorIs(err, cpu.ErrOpcodeUnknown)

	var runtime *ErrRuntime
	if assert.True(errors.As(err, &runtime)) {
		assert.Equal(uint8(5), runtime.Pc)
		assert.Equal(3, runtime.LineNo)
	}
	assert.Contains(err.Error(), "line 3")
	assert.Contains(err.Error(), "address 5")

	assert.Equal("5\n", output.String())
	assert.Equal(2, emu.Ticks())
	assert.Equal(5, emu.Pc())
	assert.False(emu.Cpu.Halted)
}

func TestEmulator_Fault(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	output := doAssemble(t, emu,
		"LDI r0, 1",
		".byte OP_PRN, 9",
		"HLT",
	)

	err := emu.Run()
	assert.ErrorIs(err, ErrFault)

	var runtime *ErrRuntime
	if assert.True(errors.As(err, &runtime)) {
		assert.Equal(uint8(3), runtime.Pc)
		assert.Equal(2, runtime.LineNo)
	}

	assert.Equal("", output.String())
	assert.Equal(1, emu.Ticks())
}

func TestEmulator_Defines(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	defines := map[string]string{}
	for key, value := range emu.Defines() {
		defines[key] = value
	}

	assert.Equal("7", defines["REG_SP"])
	assert.Equal("0xf4", defines["SP_INIT"])
	assert.Equal("1", defines["OP_HLT"])
	assert.Equal("130", defines["OP_LDI"])
	assert.Equal("167", defines["OP_CMP"])
	assert.Equal(0, len(emu.Program.Lines))

	output := doAssemble(t, emu,
		"LDI r0, OP_PRN",
		"LDI r1, $(MEMORY_SIZE - 1)",
		"PRN r0",
		"PRN r1",
		"HLT",
	)
	assert.NoError(emu.Run())
	assert.Equal("71\n255\n", output.String())
}

func TestErrRuntime(t *testing.T) {
	assert := assert.New(t)

	err := &ErrRuntime{Pc: 4, Err: cpu.ErrHalted}
	assert.Equal(cpu.ErrHalted.Error(), err.Error())
	assert.ErrorIs(err, cpu.ErrHalted)

	err.LineNo = 9
	assert.Equal("line 9 "+cpu.ErrHalted.Error(), err.Error())
}
