package main

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/hmny-oss/n2t-toolchain/pkg/jack"
	"github.com/teris-io/cli"
	"golang.org/x/sync/errgroup"
)

var Description = strings.ReplaceAll(`
The Jack Compiler compiles programs (composed of multiple classes/files) written in
the Jack language into VM modules that can be further elaborated. The Jack language
is a higher-level OOP language tailored for use with the Hack computer architecture.
`, "\n", " ")

var JackCompiler = cli.New(Description).
	WithArg(cli.NewArg("input", "The source (.jack) file, or a directory of them, to be compiled")).
	WithOption(cli.NewOption("xml", "Emits parse-tree XML alongside each compiled .vm file").
		WithChar('t').
		WithType(cli.TypeBool)).
	WithOption(cli.NewOption("jobs", "Bounds the number of files compiled in parallel (default: hardware concurrency)").
		WithChar('j')).
	WithAction(Handler)

// Handler drives the parallel file-scheduling layer of the Jack compiler: each
// discovered class is an independent task, compiled by its own tokenizer, symbol
// table and VM writer, sharing no mutable state. Tasks never cancel each other;
// the only coordination is a release-ordered failure flag read once at the end.
func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Printf("ERROR: missing input file or directory, use --help\n")
		return -1
	}

	classPaths, err := jack.DiscoverClasses(args[0])
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		return -1
	}

	_, withXML := options["xml"]

	jobs := runtime.GOMAXPROCS(0)
	if raw, ok := options["jobs"]; ok && raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			fmt.Printf("ERROR: invalid --jobs value %q\n", raw)
			return -1
		}
		jobs = n
	}

	var failed atomic.Bool
	var group errgroup.Group
	group.SetLimit(jobs)

	for _, classPath := range classPaths {
		classPath := classPath
		group.Go(func() error {
			if err := jack.CompileFile(classPath, withXML); err != nil {
				fmt.Printf("ERROR: %s\n", err)
				failed.Store(true)
			}
			return nil // a single file's failure never cancels the other tasks
		})
	}
	group.Wait()

	if failed.Load() {
		return -1
	}
	return 0
}

func main() { os.Exit(JackCompiler.Run(os.Args, os.Stdout)) }
