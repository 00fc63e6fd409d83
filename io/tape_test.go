package io

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type failWriter struct{}

var errWrite = errors.New("write failed")

func (fw failWriter) Write(p []byte) (int, error) {
	return 0, errWrite
}

func TestTape_Send(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name   string
		format TapeFormat
		values []uint8
		output string
	}){
		{"decimal", TAPE_FORMAT_DECIMAL, []uint8{72, 0, 255}, "72\n0\n255\n"},
		{"char", TAPE_FORMAT_CHAR, []uint8{'H', 'i'}, "H\ni\n"},
		{"char-high", TAPE_FORMAT_CHAR, []uint8{200, 0xff, 0}, "\xc8\n\xff\n\x00\n"},
		{"empty", TAPE_FORMAT_DECIMAL, nil, ""},
	}

	for _, entry := range table {
		out := &bytes.Buffer{}
		tape := &Tape{Output: out, Format: entry.format}
		for _, value := range entry.values {
			assert.NoError(tape.Send(value), entry.name)
		}
		assert.Equal(entry.output, out.String(), entry.name)
		assert.Equal(len(entry.values), tape.Sent, entry.name)
	}
}

func TestTape_Send_NoOutput(t *testing.T) {
	assert := assert.New(t)

	tape := &Tape{}
	assert.Equal(ErrChannelOutput, tape.Send(1))
	assert.Equal(0, tape.Sent)
}

func TestTape_Send_BadFormat(t *testing.T) {
	assert := assert.New(t)

	out := &bytes.Buffer{}
	tape := &Tape{Output: out, Format: TapeFormat(9)}
	assert.Equal(ErrTapeFormat, tape.Send(1))
	assert.Equal(0, out.Len())
}

func TestTape_Send_WriteError(t *testing.T) {
	assert := assert.New(t)

	tape := &Tape{Output: failWriter{}}
	assert.ErrorIs(tape.Send(1), errWrite)
	assert.Equal(0, tape.Sent)
}

func TestTape_Rewind(t *testing.T) {
	assert := assert.New(t)

	tape := &Tape{Output: &bytes.Buffer{}}
	assert.NoError(tape.Send(5))
	assert.Equal(1, tape.Sent)

	tape.Rewind()
	assert.Equal(0, tape.Sent)

	count := 0
	for range tape.Receive() {
		count++
	}
	assert.Equal(0, count)
}

func TestTapeFormat_String(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("decimal", TAPE_FORMAT_DECIMAL.String())
	assert.Equal("char", TAPE_FORMAT_CHAR.String())
	assert.Equal("TapeFormat(7)", TapeFormat(7).String())
}
