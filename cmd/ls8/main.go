// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ezrec/ls8/cpu"
	"github.com/ezrec/ls8/emulator"
	"github.com/ezrec/ls8/internal/stepper"
	"github.com/ezrec/ls8/translate"
)

var f = translate.From

var ErrUsage = errors.New(f("usage: ls8 [-v] [-a] [-o out.ls8] [-step] FILE"))

// load reads a program in loader or assembler format.
func load(emu *emulator.Emulator, filename string, assemble bool) (prog *cpu.Program, err error) {
	inf, err := os.Open(filename)
	if err != nil {
		return
	}
	defer inf.Close()

	if assemble {
		prog, err = emu.Assembler().Parse(inf)
	} else {
		ld := &cpu.Loader{Verbose: emu.Verbose}
		prog, err = ld.Parse(inf)
	}
	if err != nil {
		err = fmt.Errorf("%v: %w", filename, err)
	}

	return
}

// run executes the command line, writing program output to stdout.
func run(args []string, stdout io.Writer) (err error) {
	var assemble bool
	var output string
	var step bool
	var verbose bool

	flags := flag.NewFlagSet("ls8", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.BoolVar(&assemble, "a", false, "FILE is assembler source")
	flags.StringVar(&output, "o", "", "write the image in loader format, do not execute")
	flags.BoolVar(&step, "step", false, "Single step in the interactive debugger")
	flags.BoolVar(&verbose, "v", false, "Verbose mode")

	err = flags.Parse(args)
	if err != nil {
		return errors.Join(ErrUsage, err)
	}

	if flags.NArg() != 1 {
		return ErrUsage
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose

	emu.Program, err = load(emu, flags.Arg(0), assemble)
	if err != nil {
		return
	}

	if len(output) != 0 {
		out := stdout
		if output != "-" {
			var ouf *os.File
			ouf, err = os.Create(output)
			if err != nil {
				return
			}
			defer ouf.Close()
			out = ouf
		}
		return emu.Program.Listing(out)
	}

	err = emu.Reset()
	if err != nil {
		return
	}

	if step {
		return stepper.StartUI(emu)
	}

	emu.Numeric.Output = stdout
	emu.Character.Output = stdout

	return emu.Run()
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("ls8: ")

	err := run(os.Args[1:], os.Stdout)
	if err != nil {
		log.Fatal(err)
	}
}
