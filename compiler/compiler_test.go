package compiler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/lower/compiler/rationalize"
	"github.com/slowlang/lower/compiler/target"
)

var cfg = rationalize.Config{
	Target: target.AMD64,
	SIMD:   true,
	Check:  true,
}

func TestCompile(t *testing.T) {
	obj, err := Compile(context.Background(), "good.hir", []byte(`
(func good
	(local x int32)
	(local r double)
	(block
		(stmt (asg (lcl_var x) (cns_int.int32 1)))
		(stmt (asg (lcl_var r) (intrinsic.double Exp method=11 (cns_int.double 2))))))
`), cfg)
	require.NoError(t, err)

	t.Logf("obj:\n%s", obj)

	assert.Contains(t, string(obj), "func good\n")
	assert.Contains(t, string(obj), "= call.double method=11 n")
}

func TestCompileFuncFailed(t *testing.T) {
	obj, err := Compile(context.Background(), "bad.hir", []byte(`
(func first
	(local x int32)
	(block
		(stmt (asg (lcl_var x) (cns_int.int32 1)))))
(func broken
	(block
		(stmt (qmark.int32 (cns_int.int32 1) (colon.int32 (cns_int.int32 2) (cns_int.int32 3))))))
(func last
	(local y int32)
	(block
		(stmt (asg (lcl_var y) (cns_int.int32 2)))))
`), cfg)

	var failed FuncsFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, FuncsFailedError{Failed: 1, Total: 3}, failed)
	assert.EqualError(t, err, "1 of 3 funcs failed")

	s := string(obj)

	assert.Contains(t, s, "func first\n")
	assert.Contains(t, s, "; func broken: ")
	assert.Contains(t, s, "qmark")
	assert.Contains(t, s, "func last\n")
}

func TestLower(t *testing.T) {
	ctx := context.Background()

	fs, err := Build(ctx, "", []byte(`
(func a (block (stmt (nop))))
(func b (block (stmt (colon.int32 (cns_int.int32 2) (cns_int.int32 3)))))
`), cfg)
	require.NoError(t, err)
	require.Len(t, fs, 2)

	res := Lower(ctx, fs, cfg)
	require.Len(t, res, 2)

	assert.NoError(t, res[0].Err)
	assert.True(t, res[0].Func.IsLIR)

	assert.ErrorContains(t, res[1].Err, "must be expanded")
	assert.False(t, res[1].Func.IsLIR)
}

func TestBuildErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Build(ctx, "x.hir", []byte("(func a"), cfg)
	assert.ErrorContains(t, err, "parse text")

	_, err = Build(ctx, "x.hir", []byte("(func a (block (stmt (frob))))"), cfg)
	assert.ErrorContains(t, err, "front")
	assert.ErrorContains(t, err, "x.hir:1:")
}

func TestCompileFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "file.hir")

	err := os.WriteFile(name, []byte("(func f (block (stmt (nop))))\n"), 0o644)
	require.NoError(t, err)

	obj, err := CompileFile(context.Background(), name, cfg)
	require.NoError(t, err)

	assert.Contains(t, string(obj), "func f\n")
	assert.Contains(t, string(obj), "= nop.void")

	_, err = CompileFile(context.Background(), filepath.Join(t.TempDir(), "missing.hir"), cfg)
	assert.ErrorContains(t, err, "read file")
}

func TestBuildFile(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "funcs.hir")

	err := os.WriteFile(name, []byte("(func f (block))\n(func g (block (stmt (nop))))\n"), 0o644)
	require.NoError(t, err)

	fs, err := BuildFile(context.Background(), name, cfg)
	require.NoError(t, err)
	require.Len(t, fs, 2)

	assert.Equal(t, "g", fs[1].Name)

	bad := filepath.Join(dir, "bad.hir")

	err = os.WriteFile(bad, []byte("(func f\n  (frob))"), 0o644)
	require.NoError(t, err)

	_, err = BuildFile(context.Background(), bad, cfg)
	assert.ErrorContains(t, err, "bad.hir:2:")

	_, err = BuildFile(context.Background(), filepath.Join(dir, "missing.hir"), cfg)
	assert.ErrorContains(t, err, "parse file")
	assert.ErrorContains(t, err, "read file")
}
