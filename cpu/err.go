package cpu

import (
	"errors"

	"github.com/ezrec/ls8/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrHalted          = errors.New(f("cpu halted"))
	ErrChannelInvalid  = errors.New(f("channel invalid"))
	ErrProgramTooLarge = errors.New(f("program does not fit in memory"))

	// Instruction decode errors
	ErrOpcodeUnknown = errors.New(f("unknown opcode"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrLabelInvalid       = errors.New(f("label invalid"))
	ErrMacroSyntax        = errors.New(f(".macro syntax"))
	ErrMacroNesting       = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate     = errors.New(f(".macro duplicated"))
	ErrMacroLonely        = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm    = errors.New(f(".endm without .macro"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrRegisterInvalid    = errors.New(f("register invalid"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))

	// Loader errors
	ErrImageSyntax = errors.New(f("one binary literal per line"))
)

// ErrOpcode locates a failed instruction.
type ErrOpcode struct {
	Pc   uint8
	Code Code
	Err  error
}

func (err *ErrOpcode) Error() string {
	return f("address %d opcode 0b%08b (%v) %v", err.Pc, uint8(err.Code.Op), err.Code.String(), err.Err)
}

func (err *ErrOpcode) Unwrap() error {
	return err.Err
}

// ErrAluOp is raised, via panic, when the ALU is asked for an operation it
// does not implement.
type ErrAluOp Opcode

func (err ErrAluOp) Error() string {
	return f("unsupported alu operation %v", Opcode(err).String())
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err *ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err *ErrMacro) Unwrap() error {
	return err.Err
}

type ErrParseBinary string

func (err ErrParseBinary) Error() string {
	return f("'%v' is not an 8-bit binary number", string(err))
}
