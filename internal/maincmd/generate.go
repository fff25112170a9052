package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mna/classgen/internal/manifest"
	"github.com/mna/classgen/lang/asm"
	"github.com/mna/classgen/lang/classfile"
	"github.com/mna/classgen/lang/gen"
	"github.com/mna/mainer"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func (c *Cmd) Dasm(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return GenerateFiles(ctx, c.logger(), c.Direct, func(cl *asm.Class) error {
		b, err := asm.Dasm(cl)
		if err != nil {
			return err
		}
		_, err = stdio.Stdout.Write(b)
		return err
	}, stdio, args...)
}

func (c *Cmd) Build(ctx context.Context, stdio mainer.Stdio, args []string) error {
	dir := c.Output
	if dir == "" {
		dir = "."
	}
	log := c.logger()
	return GenerateFiles(ctx, log, c.Direct, func(cl *asm.Class) error {
		b, err := classfile.Encode(cl)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, filepath.FromSlash(cl.Name)+".class")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, b, 0o644); err != nil {
			return err
		}
		log.Info("class written", zap.String("class", cl.Name), zap.String("path", path), zap.Int("size", len(b)))
		return nil
	}, stdio, args...)
}

// GenerateFiles generates the class described by each manifest file and
// calls output with it. Errors are printed to stdio's stderr and the files
// that follow a failed one are still processed. The returned error joins the
// errors of all files.
func GenerateFiles(ctx context.Context, log *zap.Logger, direct bool, output func(*asm.Class) error, stdio mainer.Stdio, files ...string) error {
	if log == nil {
		log = zap.NewNop()
	}

	var errs []error
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			errs = append(errs, printError(stdio, err))
			break
		}

		m, err := manifest.Load(file)
		if err != nil {
			errs = append(errs, printError(stdio, err))
			continue
		}
		cl, err := m.Generate(direct, gen.WithLogger(log.With(zap.String("manifest", file))))
		if err == nil {
			err = output(cl)
		}
		if err != nil {
			errs = append(errs, printError(stdio, fmt.Errorf("%s: %w", file, err)))
		}
	}
	return errors.Join(errs...)
}

func (c *Cmd) logger() *zap.Logger {
	if c.log == nil {
		return zap.NewNop()
	}
	return c.log
}

func newLogger(stdio mainer.Stdio, verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(stdio.Stderr), zap.DebugLevel)
	return zap.New(core)
}
