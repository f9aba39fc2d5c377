package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/hmny-oss/n2t-toolchain/internal/diag"
	"github.com/hmny-oss/n2t-toolchain/pkg/asm"
	"github.com/hmny-oss/n2t-toolchain/pkg/vm"
	"github.com/teris-io/cli"
)

var Description = strings.ReplaceAll(`
The VM Translator translates programs (composed of one or multiple modules/files) written
in the VM language into Hack assembly code that can be further elaborated. The VM language
is a higher-level (bytecode-like) language tailored for use with the Hack computer arch.
`, "\n", " ")

var VmTranslator = cli.New(Description).
	WithArg(cli.NewArg("input", "The bytecode (.vm) file, or a directory of them, to be compiled")).
	WithOption(cli.NewOption("output", "The compiled binary output (.asm); defaults to the input's stem")).
	WithAction(Handler)

// Handler drives the VM Translator end to end: discover modules, parse each into a
// vm.Program, run the code writer (the bootstrap prologue is emitted only in directory
// mode), then serialize the result to Assembler text. Follows the same resource-discipline
// pattern as the Assembler: the output file is created up front and removed on any failure.
func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Printf("ERROR: missing input file or directory, use --help\n")
		return -1
	}
	input := args[0]

	modulePaths, directoryMode, err := vm.DiscoverModules(input)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		return -1
	}

	outputPath := options["output"]
	if outputPath == "" {
		outputPath = vm.DefaultOutput(input, directoryMode)
	}

	output, err := os.Create(outputPath)
	if err != nil {
		fmt.Printf("ERROR: %s\n", diag.IOErrorf("unable to open output file: %s", err))
		return -1
	}

	completed := false
	defer func() {
		output.Close()
		if !completed {
			os.Remove(outputPath)
		}
	}()

	program := vm.Program{}
	for _, modulePath := range modulePaths {
		content, err := os.ReadFile(modulePath)
		if err != nil {
			fmt.Printf("ERROR: %s\n", diag.IOErrorf("unable to open input file: %s", err))
			return -1
		}

		parser := vm.NewParser(bytes.NewReader(content))
		operations, err := parser.Parse()
		if err != nil {
			fmt.Printf("ERROR: %s\n", diag.WithFile(modulePath, err))
			return -1
		}

		program = append(program, vm.Module{Name: vm.ModuleName(modulePath), Operations: operations})
	}

	codegen := vm.NewCodeGenerator(program, directoryMode)
	asmProgram, err := codegen.Generate()
	if err != nil {
		fmt.Printf("ERROR: %s\n", diag.WithFile(input, err))
		return -1
	}

	asmCodegen := asm.NewCodeGenerator(asmProgram)
	compiled, err := asmCodegen.Generate()
	if err != nil {
		fmt.Printf("ERROR: %s\n", diag.WithFile(input, err))
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

func main() { os.Exit(VmTranslator.Run(os.Args, os.Stdout)) }
