package cpu

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testProgram() *Program {
	return &Program{
		Lines: []Line{
			{LineNo: 1, Addr: 0, Text: "LDI r0, 8", Values: []uint8{0b10000010, 0, 8}},
			{LineNo: 2, Addr: 3, Text: "PRN r0", Values: []uint8{0b01000111, 0}},
			{LineNo: 4, Addr: 8, Text: "HLT", Values: []uint8{0b00000001}},
		},
	}
}

func TestProgram_Debug(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	table := [](struct {
		addr   uint8
		lineno int
		index  int
	}){
		{0, 1, 0},
		{2, 1, 2},
		{3, 2, 0},
		{4, 2, 1},
		{8, 4, 0},
	}

	for _, entry := range table {
		dbg := prog.Debug(entry.addr)
		if !assert.NotNil(dbg.Line, "addr %d", entry.addr) {
			continue
		}
		assert.Equal(entry.lineno, dbg.LineNo)
		assert.Equal(entry.index, dbg.Index)
	}
}

func TestProgram_Debug_NotFound(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()

	for _, addr := range []uint8{5, 7, 9, 0xff} {
		dbg := prog.Debug(addr)
		assert.Nil(dbg.Line, "addr %d", addr)
		assert.Equal(0, dbg.Index)
	}
}

func TestProgram_Binary(t *testing.T) {
	assert := assert.New(t)

	prog := testProgram()
	assert.Equal(9, prog.Len())
	assert.Equal([]uint8{0b10000010, 0, 8, 0b01000111, 0, 0, 0, 0, 0b00000001}, prog.Binary())

	empty := &Program{}
	assert.Equal(0, empty.Len())
	assert.Equal([]uint8{}, empty.Binary())
}

func TestProgram_Bytes(t *testing.T) {
	assert := assert.New(t)

	var addrs []int
	for addr := range testProgram().Bytes() {
		addrs = append(addrs, addr)
		if len(addrs) == 4 {
			break
		}
	}
	assert.Equal([]int{0, 1, 2, 3}, addrs)
}

func TestProgram_Listing(t *testing.T) {
	assert := assert.New(t)

	out := &bytes.Buffer{}
	assert.NoError(testProgram().Listing(out))

	expected := "" +
		"10000010 #   0: LDI r0, 8\n" +
		"00000000\n" +
		"00001000\n" +
		"01000111 #   3: PRN r0\n" +
		"00000000\n" +
		"00000001 #   8: HLT\n"
	assert.Equal(expected, out.String())
}

func TestProgram_ListingLoads(t *testing.T) {
	assert := assert.New(t)

	out := &bytes.Buffer{}
	prog := &Program{Lines: testProgram().Lines[:2]}
	assert.NoError(prog.Listing(out))

	ld := &Loader{}
	loaded, err := ld.Parse(out)
	assert.NoError(err)
	assert.Equal(prog.Binary(), loaded.Binary())
}
