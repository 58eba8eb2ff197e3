package compiler

import (
	"context"
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/lower/compiler/ast"
	"github.com/slowlang/lower/compiler/format"
	"github.com/slowlang/lower/compiler/front"
	"github.com/slowlang/lower/compiler/ir"
	"github.com/slowlang/lower/compiler/parse"
	"github.com/slowlang/lower/compiler/rationalize"
)

type (
	// Result of lowering one function.
	Result struct {
		Func *ir.Func
		Err  error
	}

	FuncsFailedError struct {
		Failed int
		Total  int
	}
)

func CompileFile(ctx context.Context, name string, cfg rationalize.Config) (obj []byte, err error) {
	fs, err := BuildFile(ctx, name, cfg)
	if err != nil {
		return nil, err
	}

	return emit(ctx, fs, cfg)
}

// Compile lowers every function of the text and prints them in linear form.
// A function failing doesn't stop the others, it's reported in place
// and counted in the returned FuncsFailedError.
func Compile(ctx context.Context, name string, text []byte, cfg rationalize.Config) (obj []byte, err error) {
	fs, err := Build(ctx, name, text, cfg)
	if err != nil {
		return nil, err
	}

	return emit(ctx, fs, cfg)
}

func emit(ctx context.Context, fs []*ir.Func, cfg rationalize.Config) (obj []byte, err error) {
	res := Lower(ctx, fs, cfg)

	failed := 0

	for i, r := range res {
		if i != 0 {
			obj = append(obj, '\n')
		}

		if r.Err != nil {
			failed++
			obj = append(obj, "; "...)
			obj = append(obj, r.Err.Error()...)
			obj = append(obj, '\n')

			continue
		}

		obj, err = format.Format(ctx, obj, r.Func)
		if err != nil {
			return nil, errors.Wrap(err, "format %v", r.Func.Name)
		}
	}

	if failed != 0 {
		return obj, FuncsFailedError{Failed: failed, Total: len(res)}
	}

	return obj, nil
}

// Build parses the text into tree form functions.
func Build(ctx context.Context, name string, text []byte, cfg rationalize.Config) (fs []*ir.Func, err error) {
	st := parse.New()

	st.AddFile(name, text)

	x, err := st.Parse(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "parse text")
	}

	return build(ctx, st, x, cfg)
}

// BuildFile reads and parses the file into tree form functions.
func BuildFile(ctx context.Context, name string, cfg rationalize.Config) (fs []*ir.Func, err error) {
	st, x, err := parse.ParseFile(ctx, name)
	if err != nil {
		return nil, errors.Wrap(err, "parse file")
	}

	tlog.SpanFromContext(ctx).Printw("file parsed", "name", name)

	return build(ctx, st, x, cfg)
}

func build(ctx context.Context, st *parse.State, x ast.Node, cfg rationalize.Config) (fs []*ir.Func, err error) {
	fs, err = front.New(st, cfg.Target).Build(ctx, x)
	if err != nil {
		return nil, errors.Wrap(err, "front")
	}

	return fs, nil
}

// Lower rationalizes each function independently.
func Lower(ctx context.Context, fs []*ir.Func, cfg rationalize.Config) (res []Result) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "lower", "funcs", len(fs))
	defer tr.Finish()

	for _, f := range fs {
		err := rationalize.Run(ctx, f, cfg)
		if err != nil {
			tr.Printw("func failed", "func", f.Name, "err", err)
		}

		res = append(res, Result{Func: f, Err: err})
	}

	return res
}

func (e FuncsFailedError) Error() string {
	return fmt.Sprintf("%d of %d funcs failed", e.Failed, e.Total)
}
