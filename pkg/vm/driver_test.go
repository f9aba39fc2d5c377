package vm_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hmny-oss/n2t-toolchain/pkg/vm"
)

func TestDiscoverModules(t *testing.T) {
	t.Run("single file", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "Main.vm")
		if err := os.WriteFile(file, []byte("return\n"), 0644); err != nil {
			t.Fatalf("writing fixture: %v", err)
		}

		modules, directoryMode, err := vm.DiscoverModules(file)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if directoryMode {
			t.Fatal("expected single-file mode")
		}
		if len(modules) != 1 || modules[0] != file {
			t.Fatalf("expected [%s], got %v", file, modules)
		}
	})

	t.Run("directory sorts by filename", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"Zebra.vm", "Apple.vm", "Main.vm", "notvm.txt"} {
			if err := os.WriteFile(filepath.Join(dir, name), []byte("return\n"), 0644); err != nil {
				t.Fatalf("writing fixture: %v", err)
			}
		}

		modules, directoryMode, err := vm.DiscoverModules(dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !directoryMode {
			t.Fatal("expected directory mode")
		}
		if len(modules) != 3 {
			t.Fatalf("expected 3 '.vm' files (non-.vm filtered out), got %d: %v", len(modules), modules)
		}
		for i, want := range []string{"Apple.vm", "Main.vm", "Zebra.vm"} {
			if filepath.Base(modules[i]) != want {
				t.Fatalf("expected sorted order, position %d expected %s got %s", i, want, modules[i])
			}
		}
	})

	t.Run("empty directory fails", func(t *testing.T) {
		dir := t.TempDir()
		if _, _, err := vm.DiscoverModules(dir); err == nil {
			t.Fatal("expected an error for a directory with no '.vm' files")
		}
	})
}

func TestModuleNameAndDefaultOutput(t *testing.T) {
	if got := vm.ModuleName("/a/b/Main.vm"); got != "Main" {
		t.Fatalf("expected 'Main', got %q", got)
	}

	if got := vm.DefaultOutput("/a/b/Main.vm", false); got != "/a/b/Main.asm" {
		t.Fatalf("expected '/a/b/Main.asm', got %q", got)
	}

	if got := vm.DefaultOutput("/a/b/MyProg", true); got != "MyProg.asm" {
		t.Fatalf("expected 'MyProg.asm', got %q", got)
	}

	if got := vm.DefaultOutput("/a/b/MyProg/", true); got != "MyProg.asm" {
		t.Fatalf("expected a trailing separator to be stripped, got %q", got)
	}
}
