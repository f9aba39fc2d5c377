package jack

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hmny-oss/n2t-toolchain/internal/diag"
)

// ----------------------------------------------------------------------------
// Compilation driver (the compiler's file-discovery and CLI entrypoint)

// DiscoverClasses resolves the CLI's "INPUT.jack | INPUT_DIR" argument into an
// ordered list of '.jack' source paths, sorted by filename for reproducible
// worker-task assignment.
func DiscoverClasses(inputPath string) ([]string, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, diag.IOErrorf("unable to stat input path: %s", err)
	}

	if !info.IsDir() {
		return []string{inputPath}, nil
	}

	entries, err := os.ReadDir(inputPath)
	if err != nil {
		return nil, diag.IOErrorf("unable to read input directory: %s", err)
	}

	var classes []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jack") {
			continue
		}
		classes = append(classes, filepath.Join(inputPath, entry.Name()))
	}
	sort.Strings(classes)

	if len(classes) == 0 {
		return nil, diag.IOErrorf("no '.jack' files found in %s", inputPath)
	}
	return classes, nil
}

// ClassName derives a class's name (and the symbol the engine will require the
// 'class' declaration to match) from its source path: the filename stem.
func ClassName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// CompileFile runs the full single-class pipeline (tokenize → compilation
// engine, which drives the symbol table and VM writer) for one '.jack' source
// path, producing its '.vm' file and, when withXML is set, a parse-tree '.xml'
// alongside it. Both output files follow the resource-discipline pattern: they
// exist on disk only if the whole class compiled without error.
func CompileFile(path string, withXML bool) (err error) {
	className := ClassName(path)
	source, err := os.ReadFile(path)
	if err != nil {
		return diag.IOErrorf("unable to open input file: %s", err)
	}

	tokens, err := NewTokenizer(source).Tokenize()
	if err != nil {
		return diag.WithFile(path, err)
	}

	vmPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".vm"
	writer, err := NewVMWriter(vmPath)
	if err != nil {
		return diag.WithFile(path, err)
	}
	defer writer.Abort() // no-op once Finish has run

	var xml *xmlBuilder
	if withXML {
		xml = newXMLBuilder("class")
	}

	engine := NewCompilationEngine(className, tokens, writer, xml)
	if err := engine.CompileClass(); err != nil {
		return diag.WithFile(path, err)
	}

	if err := writer.Finish(); err != nil {
		return diag.WithFile(path, err)
	}

	if withXML {
		xmlPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".xml"
		if err := writeXMLFile(xmlPath, xml); err != nil {
			os.Remove(vmPath)
			return diag.WithFile(path, err)
		}
	}

	return nil
}

func writeXMLFile(path string, xml *xmlBuilder) (err error) {
	file, createErr := os.Create(path)
	if createErr != nil {
		return diag.IOErrorf("unable to open XML output file: %s", createErr)
	}
	completed := false
	defer func() {
		file.Close()
		if !completed {
			os.Remove(path)
		}
	}()

	if err := xml.WriteTo(file); err != nil {
		return diag.IOErrorf("writing XML output: %s", err)
	}
	completed = true
	return nil
}
