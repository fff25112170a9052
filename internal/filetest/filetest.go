// Package filetest implements golden-file tests: a test runs on each input
// file of a directory and its outputs are compared with the golden files
// stored for that input.
package filetest

import (
	"errors"
	"flag"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/kylelemons/godebug/diff"
)

var testUpdateAllTests = flag.Bool("test.update-all-tests", false, "If set, sets all test.update-*-tests.")

// Files returns the names of the regular files in dir with the specified
// extension (with or without the leading dot), or all regular files if ext
// is empty.
func Files(t *testing.T, dir, ext string) []string {
	t.Helper()

	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}

	dents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	res := make([]string, 0, len(dents))
	for _, dent := range dents {
		if !dent.Type().IsRegular() {
			continue
		}
		if ext != "" && filepath.Ext(dent.Name()) != ext {
			continue
		}
		res = append(res, dent.Name())
	}
	return res
}

// Golden compares outputs with the golden files stored in Dir. The golden
// file of an input file is named after it, with an extension that
// identifies the kind of output. A missing golden file is the same as an
// empty one.
type Golden struct {
	Dir string

	// Update is the flag that, if set, replaces the golden files with the
	// outputs instead of comparing them. The test.update-all-tests flag has
	// the same effect for all Golden values.
	Update *bool
}

// Output compares the standard output produced for the input file name with
// its ".want" golden file.
func (g Golden) Output(t *testing.T, name, output string) {
	t.Helper()
	g.Diff(t, name, "output", ".want", output)
}

// Errors compares the errors produced for the input file name with its
// ".err" golden file.
func (g Golden) Errors(t *testing.T, name, output string) {
	t.Helper()
	g.Diff(t, name, "errors", ".err", output)
}

// Diff is the general version of Output and Errors. The label identifies the
// kind of output in the test logs (e.g. "output", "errors") and ext is the
// extension of the golden file, including the leading dot.
func (g Golden) Diff(t *testing.T, name, label, ext, output string) {
	t.Helper()

	goldFile := filepath.Join(g.Dir, name+ext)
	if (g.Update != nil && *g.Update) || *testUpdateAllTests {
		update(t, goldFile, output)
		return
	}

	wantb, err := os.ReadFile(goldFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		t.Fatal(err)
	}
	want := string(wantb)
	if testing.Verbose() {
		t.Logf("got %s:\n%s\n", label, output)
	}
	if patch := diff.Diff(want, output); patch != "" {
		if testing.Verbose() {
			t.Logf("want %s:\n%s\n", label, want)
		}
		t.Errorf("diff %s:\n%s\n", label, patch)
	}
}

// update writes output to goldFile, or removes goldFile if output is empty.
func update(t *testing.T, goldFile, output string) {
	t.Helper()

	if output == "" {
		if err := os.Remove(goldFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			t.Fatal(err)
		}
		return
	}
	if err := os.WriteFile(goldFile, []byte(output), 0600); err != nil {
		t.Fatal(err)
	}
}
