package cpu

import (
	"errors"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Loader image format: one base-2 literal per line, optionally followed by a
// '#' comment. Blank and comment-only lines are skipped.
var imageLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "EOL", Pattern: `\n`},
	{Name: "Whitespace", Pattern: `[ \t\r\f\v]+`},
	{Name: "Literal", Pattern: `[^\s#]+`},
})

type imageFile struct {
	Lines []*imageLine `@@*`
}

type imageLine struct {
	Pos     lexer.Position
	Literal *string `@Literal? EOL`
}

var imageParser = participle.MustBuild[imageFile](
	participle.Lexer(imageLexer),
	participle.Elide("Whitespace", "Comment"),
)

// Loader reads memory images written as binary literals.
type Loader struct {
	Verbose bool // If set, logs each loaded byte.
}

// parseBinary parses a base-2 literal that must fit in 8 bits. A leading
// "0b" and '_' digit separators are accepted.
func parseBinary(word string) (value uint8, err error) {
	digits := word
	if len(digits) > 2 && (digits[:2] == "0b" || digits[:2] == "0B") {
		digits = digits[2:]
	}

	v64, err := strconv.ParseUint("0b"+digits, 0, 8)
	if err != nil {
		err = ErrParseBinary(word)
		return
	}

	value = uint8(v64)
	return
}

// Parse reads an image from input into a Program, one byte per literal at
// sequential addresses from 0.
func (ld *Loader) Parse(input io.Reader) (prog *Program, err error) {
	data, err := io.ReadAll(input)
	if err != nil {
		return
	}

	text := string(data)
	if len(text) > 0 && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	source := strings.Split(text, "\n")

	var lineno int
	defer func() {
		if err != nil && lineno > 0 {
			err = &ErrSyntax{LineNo: lineno, Line: strings.TrimSpace(source[lineno-1]), Err: err}
		}
	}()

	image, err := imageParser.ParseString("", text)
	if err != nil {
		var perr participle.Error
		if errors.As(err, &perr) {
			lineno = perr.Position().Line
		}
		err = errors.Join(ErrImageSyntax, err)
		return
	}

	prog = &Program{}
	addr := 0
	for _, line := range image.Lines {
		if line.Literal == nil {
			continue
		}

		lineno = line.Pos.Line

		var value uint8
		value, err = parseBinary(*line.Literal)
		if err != nil {
			prog = nil
			return
		}

		if addr >= MEMORY_SIZE {
			prog = nil
			err = ErrProgramTooLarge
			return
		}

		if ld.Verbose {
			log.Printf("loader: %3d: %08b", addr, value)
		}

		prog.Lines = append(prog.Lines, Line{
			LineNo: lineno,
			Addr:   addr,
			Text:   *line.Literal,
			Values: []uint8{value},
		})
		addr++
	}

	return
}
