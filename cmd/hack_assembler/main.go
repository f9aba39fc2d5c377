package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/hmny-oss/n2t-toolchain/internal/diag"
	"github.com/hmny-oss/n2t-toolchain/pkg/asm"
	"github.com/hmny-oss/n2t-toolchain/pkg/hack"
	"github.com/teris-io/cli"
)

var Description = strings.ReplaceAll(`
The Hack Assembler takes assembly language code written in the Hack assembly language
and translates it into machine code that can be executed by the Hack computer. The process
involves parsing the assembly code, resolving symbols, and generating machine code.
`, "\n", " ")

var HackAssembler = cli.New(Description).
	WithArg(cli.NewArg("input", "The assembler (.asm) file to be compiled")).
	WithArg(cli.NewArg("output", "The compiled binary output (.hack)")).
	WithAction(Handler)

// Handler drives the two Assembler passes end to end. The output file is created up
// front and removed on any failure path, so a failed run never leaves a partial .hack file
// behind; it's only kept once every instruction has been generated successfully.
func Handler(args []string, options map[string]string) int {
	input, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Printf("ERROR: %s\n", diag.IOErrorf("unable to open input file: %s", err))
		return -1
	}

	output, err := os.Create(args[1])
	if err != nil {
		fmt.Printf("ERROR: %s\n", diag.IOErrorf("unable to open output file: %s", err))
		return -1
	}

	completed := false
	defer func() {
		output.Close()
		if !completed {
			os.Remove(args[1])
		}
	}()

	parser := asm.NewParser(bytes.NewReader(input))
	asmProgram, err := parser.Parse()
	if err != nil {
		fmt.Printf("ERROR: %s\n", diag.WithFile(args[0], err))
		return -1
	}

	lowerer := asm.NewLowerer(asmProgram)
	hackProgram, table, err := lowerer.Lower()
	if err != nil {
		fmt.Printf("ERROR: %s\n", diag.WithFile(args[0], err))
		return -1
	}

	codegen := hack.NewCodeGenerator(hackProgram, table)
	compiled, err := codegen.Generate()
	if err != nil {
		fmt.Printf("ERROR: %s\n", diag.WithFile(args[0], err))
		return -1
	}

	for _, line := range compiled {
		if _, err := fmt.Fprintf(output, "%s\n", line); err != nil {
			fmt.Printf("ERROR: %s\n", diag.IOErrorf("writing output file: %s", err))
			return -1
		}
	}

	completed = true
	return 0
}

func main() { os.Exit(HackAssembler.Run(os.Args, os.Stdout)) }
