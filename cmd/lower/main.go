package main

import (
	"context"
	"fmt"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/lower/compiler"
	"github.com/slowlang/lower/compiler/format"
	"github.com/slowlang/lower/compiler/rationalize"
	"github.com/slowlang/lower/compiler/target"
)

func main() {
	flags := []*cli.Flag{
		cli.NewFlag("target", "amd64", "target architecture: amd64, x86, arm64"),
		cli.NewFlag("simd", true, "enable vector normalization if the target supports it"),
		cli.NewFlag("check", true, "validate linear order after each block"),
		cli.NewFlag("verbosity,v", "", "tlog verbosity topics"),
		cli.HelpFlag,
	}

	parseCmd := &cli.Command{
		Name:        "parse",
		Description: "parse hir text and print it back in tree form",
		Action:      parseAct,
		Args:        cli.Args{},
		Flags:       flags,
	}

	compileCmd := &cli.Command{
		Name:        "compile",
		Description: "lower hir text into linear form",
		Action:      compileAct,
		Args:        cli.Args{},
		Flags:       flags,
	}

	app := &cli.Command{
		Name:        "lower",
		Description: "lower is a tool for lowering tree form ir into linear form",
		Commands: []*cli.Command{
			parseCmd,
			compileCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func config(c *cli.Command) (cfg rationalize.Config, err error) {
	t, ok := target.Lookup(c.String("target"))
	if !ok {
		return cfg, errors.New("unknown target: %v", c.String("target"))
	}

	cfg = rationalize.Config{
		Target: t,
		SIMD:   c.Bool("simd") && t.SIMD,
		Check:  c.Bool("check"),
	}

	return cfg, nil
}

func before(c *cli.Command) context.Context {
	tlog.SetVerbosity(c.String("verbosity"))

	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	return ctx
}

func parseAct(c *cli.Command) (err error) {
	ctx := before(c)

	cfg, err := config(c)
	if err != nil {
		return err
	}

	for _, a := range c.Args {
		fs, err := compiler.BuildFile(ctx, a, cfg)
		if err != nil {
			return errors.Wrap(err, "parse %v", a)
		}

		b, err := format.Format(ctx, nil, fs)
		if err != nil {
			return errors.Wrap(err, "format %v", a)
		}

		fmt.Printf("%s", b)
	}

	return nil
}

func compileAct(c *cli.Command) (err error) {
	ctx := before(c)

	cfg, err := config(c)
	if err != nil {
		return err
	}

	for _, a := range c.Args {
		obj, err := compiler.CompileFile(ctx, a, cfg)
		fmt.Printf("%s", obj)

		if err != nil {
			return errors.Wrap(err, "compile %v", a)
		}
	}

	return nil
}
