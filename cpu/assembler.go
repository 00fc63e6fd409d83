// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// link is an immediate operand waiting for a label address.
type link struct {
	line  int // Index into Assembler.Lines.
	index int // Index into the line's Values.
	label string
}

// Assembler is a single pass macro assembler for LS-8 programs.
//
// Source lines are whitespace or comma separated words; ';' starts a
// comment. A line may start with one or more "label:" definitions and then
// holds a mnemonic with its operands, or a directive:
//
//	.equ NAME VALUE      ; define a constant
//	.macro NAME ARGS...  ; start a macro, ended by .endm
//	.byte VALUE...       ; emit raw bytes
//
// Operands are registers (r0-r7, sp), numbers in any Go base, 'c'
// characters, labels, or $(...) expressions evaluated at assembly time.
type Assembler struct {
	Verbose bool   // If set, verbosely logs the assembler actions.
	Lines   []Line // List of generated lines.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	links []link
}

// Predefine defines a new equate or redefines an existing equate, for all
// subsequent calls to Parse.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// regMap is a map of register names to register indexes.
var regMap = map[string]uint8{
	"r0": 0,
	"r1": 1,
	"r2": 2,
	"r3": 3,
	"r4": 4,
	"r5": 5,
	"r6": 6,
	"r7": 7,
	"sp": REG_SP,
}

var (
	reCharacter  = regexp.MustCompile(`'\\?[^']'`)
	reExpression = regexp.MustCompile(`\$\([^\$]*\)`)
	reLabel      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// valueOf returns the byte value of a simple word. Negative numbers down to
// -128 are stored in two's complement; '~' inverts the value.
func (asm *Assembler) valueOf(word string) (value uint8, err error) {
	invert := false
	if strings.HasPrefix(word, "~") {
		invert = true
		word = word[1:]
	}

	v64, perr := strconv.ParseInt(word, 0, 16)
	if perr != nil || v64 > 0xff || v64 < -0x80 {
		err = ErrParseNumber(word)
		return
	}

	value = uint8(v64)
	if invert {
		value = ^value
	}

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{Name: "asm"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		v64, perr := strconv.ParseInt(str, 0, 64)
		if perr != nil {
			// Registers and other words are not visible to expressions.
			continue
		}
		pred[key] = starlark.MakeInt64(v64)
	}
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeInt(addr)
	}

	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", "rc="+expr+"\n", pred)
	if err != nil {
		return
	}
	st_int, ok := dict["rc"].(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}

	return
}

// expandCharacters replaces 'c' quotes with their numeric value.
func expandCharacters(line string) string {
	return reCharacter.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			switch str[1:] {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "t":
				str = "\t"
			case "0":
				str = "\000"
			default:
				return word
			}
		}
		return fmt.Sprintf("%d", str[0])
	})
}

// parseLine expands a single line into words, handling equates, labels and
// macros. Macro expansion emits its lines directly and returns no words.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	line = expandCharacters(line)

	line = reExpression.ReplaceAllStringFunc(line, func(str string) string {
		value, eval_err := asm.parenEval(str[2 : len(str)-1])
		if eval_err != nil && err == nil {
			err = eval_err
		}
		return fmt.Sprintf("%d", value)
	})
	if err != nil {
		return
	}

	words = strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		if _, ok := asm.Equate[words[1]]; ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = nil
		return
	}

	for n, word := range words {
		if equate, ok := asm.Equate[word]; ok {
			words[n] = equate
		}
	}

	for len(words) > 0 && strings.HasSuffix(words[0], ":") {
		label := strings.TrimSuffix(words[0], ":")
		if !reLabel.MatchString(label) {
			err = ErrLabelInvalid
			return
		}
		if _, ok := asm.Label[label]; ok {
			err = ErrLabelDuplicate
			return
		}
		asm.Label[label] = asm.currentAddr()
		words = words[1:]
	}
	if len(words) == 0 {
		return
	}

	macro, ok := asm.Macro[words[0]]
	if !ok {
		return
	}

	name := words[0]
	args := words[1:]
	if len(args) != len(macro.Args) {
		err = ErrMacroSyntax
		return
	}

	// Macro arguments shadow equates until the expansion is done.
	old_equate := maps.Clone(asm.Equate)
	defer func() { asm.Equate = old_equate }()
	for n, arg := range macro.Args {
		asm.Equate[arg] = args[n]
	}

	for n, text := range macro.Lines {
		macro_lineno := macro.LineNo + n

		// '@' makes labels local to this expansion.
		text = strings.ReplaceAll(text, "@", fmt.Sprintf("%v_%v_", name, lineno))

		var expanded []string
		expanded, err = asm.parseLine(text, macro_lineno)
		if err == nil {
			err = asm.parseWords(expanded, macro_lineno, text)
		}
		if err != nil {
			err = &ErrMacro{Macro: name, Line: macro_lineno, Err: err}
			return
		}
	}

	words = nil
	return
}

// currentAddr gets the address of the next emitted byte.
func (asm *Assembler) currentAddr() int {
	if len(asm.Lines) == 0 {
		return 0
	}

	last := asm.Lines[len(asm.Lines)-1]

	return last.Addr + len(last.Values)
}

// operandValue encodes a single operand word.
func (asm *Assembler) operandValue(kind OperandKind, word string, index int) (value uint8, err error) {
	if kind == OPERAND_REG {
		reg, ok := regMap[strings.ToLower(word)]
		if !ok {
			err = ErrRegisterInvalid
			return
		}
		value = reg
		return
	}

	value, err = asm.valueOf(word)
	if err != nil && reLabel.MatchString(word) {
		// Resolved once all labels are known.
		asm.links = append(asm.links, link{line: len(asm.Lines), index: index, label: word})
		value = 0
		err = nil
	}

	return
}

// parseWords encodes the words of one line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int, text string) (err error) {
	if len(words) == 0 {
		return
	}

	var values []uint8

	switch strings.ToLower(words[0]) {
	case ".byte":
		if len(words) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		for n, word := range words[1:] {
			var value uint8
			value, err = asm.operandValue(OPERAND_IMM, word, n)
			if err != nil {
				return
			}
			values = append(values, value)
		}
	default:
		op, ok := OpcodeByName(words[0])
		if !ok {
			err = ErrInstructionInvalid
			return
		}

		kinds := op.OperandKinds()
		args := words[1:]
		if len(args) < len(kinds) {
			err = ErrOpcodeValueMissing
			return
		}
		if len(args) > len(kinds) {
			err = ErrOpcodeExtraArgs
			return
		}

		values = append(values, uint8(op))
		for n, kind := range kinds {
			var value uint8
			value, err = asm.operandValue(kind, args[n], n+1)
			if err != nil {
				return
			}
			values = append(values, value)
		}
	}

	addr := asm.currentAddr()
	if addr+len(values) > MEMORY_SIZE {
		err = ErrProgramTooLarge
		return
	}

	if asm.Verbose {
		log.Printf("asm: %3d: %v % x", addr, text, values)
	}

	asm.Lines = append(asm.Lines, Line{LineNo: lineno, Addr: addr, Text: text, Values: values})

	return
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Lines = nil
	asm.links = nil
	asm.Label = make(map[string]int)
	asm.Macro = make(map[string](*Macro))
	asm.Equate = maps.Clone(sysEquate)
	maps.Copy(asm.Equate, asm.predefine)

	for scanner.Scan() {
		lineno++
		text := scanner.Text()

		if asm.Verbose {
			log.Printf("%v: %v", lineno, text)
		}

		line, _, _ = strings.Cut(text, ";")
		line = strings.TrimSpace(line)
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			if _, ok := asm.Macro[words[1]]; ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{LineNo: lineno + 1, Args: words[2:]}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno, line)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of labels.
	for _, lk := range asm.links {
		addr, ok := asm.Label[lk.label]
		if !ok {
			lineno = asm.Lines[lk.line].LineNo
			line = asm.Lines[lk.line].Text
			err = ErrLabelMissing(lk.label)
			return
		}
		asm.Lines[lk.line].Values[lk.index] = uint8(addr)
	}

	prog = &Program{
		Lines: slices.Clone(asm.Lines),
	}

	return
}
