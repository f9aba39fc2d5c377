package vm

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hmny-oss/n2t-toolchain/internal/diag"
)

// ----------------------------------------------------------------------------
// Translation driver (file discovery and the CLI entrypoint)

// DiscoverModules resolves the CLI's "INPUT.vm | INPUT_DIR" argument into an ordered
// list of '.vm' source paths and reports whether directory mode was selected. Directory
// contents are sorted by filename so translation output is reproducible across filesystems,
// matching the original toolchain's own file-list sort before translation.
func DiscoverModules(inputPath string) (modules []string, directoryMode bool, err error) {
	info, statErr := os.Stat(inputPath)
	if statErr != nil {
		return nil, false, diag.IOErrorf("unable to stat input path: %s", statErr)
	}

	if !info.IsDir() {
		return []string{inputPath}, false, nil
	}

	entries, readErr := os.ReadDir(inputPath)
	if readErr != nil {
		return nil, false, diag.IOErrorf("unable to read input directory: %s", readErr)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".vm") {
			continue
		}
		modules = append(modules, filepath.Join(inputPath, entry.Name()))
	}
	sort.Strings(modules)

	if len(modules) == 0 {
		return nil, true, diag.IOErrorf("no '.vm' files found in %s", inputPath)
	}
	return modules, true, nil
}

// ModuleName derives a VM module's name (used for static-segment addressing) from its source
// path: the filename stem, stripped of its '.vm' extension.
func ModuleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DefaultOutput derives the default '.asm' output path for a given CLI input argument:
// the directory's own stem in directory mode, the input file's stem otherwise.
func DefaultOutput(inputPath string, directoryMode bool) string {
	if directoryMode {
		clean := strings.TrimSuffix(inputPath, string(filepath.Separator))
		return ModuleName(clean) + ".asm"
	}
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".asm"
}
