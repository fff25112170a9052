package maincmd_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/classgen/internal/filetest"
	"github.com/mna/classgen/internal/maincmd"
	"github.com/mna/classgen/lang/asm"
	"github.com/mna/classgen/lang/classfile"
	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpdateDasmTests = flag.Bool("test.update-dasm-tests", false, "If set, replace expected dasm test results with actual results.")

func TestDasm(t *testing.T) {
	ctx := context.Background()
	srcDir := filepath.Join("testdata", "in")
	golden := filetest.Golden{Dir: filepath.Join("testdata", "out"), Update: testUpdateDasmTests}

	for _, name := range filetest.Files(t, srcDir, ".toml") {
		t.Run(name, func(t *testing.T) {
			for _, direct := range []bool{false, true} {
				var buf, ebuf bytes.Buffer
				stdio := mainer.Stdio{
					Stdout: &buf,
					Stderr: &ebuf,
				}

				// error is ignored, we just want it to be printed to ebuf
				_ = maincmd.GenerateFiles(ctx, nil, direct, func(c *asm.Class) error {
					b, err := asm.Dasm(c)
					buf.Write(b)
					return err
				}, stdio, filepath.Join(srcDir, name))

				if !direct {
					golden.Output(t, name, buf.String())
					golden.Errors(t, name, ebuf.String())
					continue
				}
				golden.Diff(t, name, "direct output", ".direct.want", buf.String())
				golden.Diff(t, name, "direct errors", ".direct.err", ebuf.String())
			}

			if t.Failed() && testing.Verbose() {
				b, err := os.ReadFile(filepath.Join(srcDir, name))
				if assert.NoError(t, err) {
					t.Logf("manifest:\n%s\n", string(b))
				}
			}
		})
	}
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	var buf, ebuf bytes.Buffer
	stdio := mainer.Stdio{Stdout: &buf, Stderr: &ebuf}

	c := maincmd.Cmd{Output: dir}
	err := c.Build(context.Background(), stdio, []string{
		filepath.Join("testdata", "in", "lookups.toml"),
		filepath.Join("testdata", "in", "invalid.toml"),
		filepath.Join("testdata", "in", "reflect.toml"),
	})
	require.ErrorContains(t, err, "invalid.toml")
	assert.Contains(t, ebuf.String(), "invalid.toml: class name")
	assert.Empty(t, buf.String())

	for _, name := range []string{"Lookups", "Reflect"} {
		b, err := os.ReadFile(filepath.Join(dir, "com", "example", name+".class"))
		require.NoError(t, err)
		require.Greater(t, len(b), 8)
		assert.Equal(t, uint32(classfile.Magic), binary.BigEndian.Uint32(b))
		assert.Equal(t, uint16(classfile.MajorVersion), binary.BigEndian.Uint16(b[6:]))
	}
}

func TestBuildCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf, ebuf bytes.Buffer
	stdio := mainer.Stdio{Stdout: &buf, Stderr: &ebuf}
	c := maincmd.Cmd{Output: t.TempDir()}
	err := c.Build(ctx, stdio, []string{filepath.Join("testdata", "in", "lookups.toml")})
	require.ErrorIs(t, err, context.Canceled)
}

func TestMainCmd(t *testing.T) {
	lookups := filepath.Join("testdata", "in", "lookups.toml")
	cases := []struct {
		desc   string
		args   []string
		code   mainer.ExitCode
		stdout string
		stderr string
	}{
		{"help", []string{"-h"}, mainer.Success, "usage: classgen", ""},
		{"version", []string{"--version"}, mainer.Success, "classgen 1.0 2024-01-01", ""},
		{"no command", nil, mainer.InvalidArgs, "", "no command specified"},
		{"unknown command", []string{"run", lookups}, mainer.InvalidArgs, "", "unknown command: run"},
		{"no manifest", []string{"dasm"}, mainer.InvalidArgs, "", "dasm: at least one manifest must be provided"},
		{"output flag", []string{"-o", "x", "dasm", lookups}, mainer.InvalidArgs, "", "dasm: invalid flag 'output'"},
		{"dasm", []string{"dasm", lookups}, mainer.Success, "class: com/example/Lookups java/lang/Object", ""},
		{"dasm direct", []string{"--direct", "dasm", lookups}, mainer.Success, "ldc \"valueOf\"", ""},
		{"dasm failure", []string{"dasm", filepath.Join("testdata", "in", "missing.toml")}, mainer.Failure, "", "missing.toml"},
		{"dasm verbose", []string{"--verbose", "dasm", lookups}, mainer.Success, "method: <clinit>", "cache constant"},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			var buf, ebuf bytes.Buffer
			stdio := mainer.Stdio{Stdout: &buf, Stderr: &ebuf}

			cmd := maincmd.Cmd{BuildVersion: "1.0", BuildDate: "2024-01-01"}
			code := cmd.Main(append([]string{"classgen"}, c.args...), stdio)
			assert.Equal(t, c.code, code)
			assert.Contains(t, buf.String(), c.stdout)
			assert.Contains(t, ebuf.String(), c.stderr)
		})
	}
}
