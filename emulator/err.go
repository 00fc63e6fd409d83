package emulator

import (
	"errors"

	"github.com/ezrec/ls8/translate"
)

var f = translate.From

var (
	// ErrFault reports a panic raised while executing an instruction, such
	// as a register operand past r7.
	ErrFault = errors.New(f("machine fault"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Pc     uint8
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return err.Err.Error()
	}
	return f("line %d %v", err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
