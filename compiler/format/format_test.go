package format

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/lower/compiler/front"
	"github.com/slowlang/lower/compiler/ir"
	"github.com/slowlang/lower/compiler/parse"
	"github.com/slowlang/lower/compiler/rationalize"
	"github.com/slowlang/lower/compiler/target"
)

const text = `
(func all
	(local x int32)
	(local p byref)
	(local s struct size=24)
	(local v simd16 base=float)
	(local arr ref)
	(block
		(stmt il=1 (asg (lcl_var x) (add (cns_int.int32 -1) (lcl_var x death))))
		(stmt (asg (ind.int32 volatile (lcl_var p)) (cls_var.int32 handle=16)))
		(stmt (asg (lcl_fld.int32 s offs=8 seq=none) (intrinsic Abs method=3 (lcl_var x))))
		(stmt (asg (lcl_var v) (simd.simd16 InitArray base=float (lcl_var arr) (lcl_var x))))
		(stmt (call.void helper method=4 entry=2 (lcl_var x) (comma.int32 (nop) (cns_int.int32 7)))))
	(block)
	(block
		(stmt (asg (dyn_blk.struct (lcl_var p) (lcl_var x)) (ind.struct (lea (lcl_var p) scale=1 offset=8))))))
`

func build(t *testing.T, text string) []*ir.Func {
	t.Helper()

	ctx := context.Background()

	st, x, err := parse.Parse(ctx, []byte(text))
	require.NoError(t, err)

	fs, err := front.New(st, target.AMD64).Build(ctx, x)
	require.NoError(t, err)

	return fs
}

func TestFormatHIRRoundTrip(t *testing.T) {
	ctx := context.Background()

	fs := build(t, text)

	b1, err := Format(ctx, nil, fs)
	require.NoError(t, err)

	t.Logf("hir:\n%s", b1)

	b2, err := Format(ctx, nil, build(t, string(b1)))
	require.NoError(t, err)

	assert.Equal(t, string(b1), string(b2))

	assert.Contains(t, string(b1), "(local s struct size=24)")
	assert.Contains(t, string(b1), "(local v simd16 base=float)")
	assert.Contains(t, string(b1), "(stmt il=1 ")
	assert.Contains(t, string(b1), "(lcl_var.int32 x death)")
	assert.Contains(t, string(b1), "(cns_int.int32 -1)")
	assert.Contains(t, string(b1), "(call.void helper method=4 entry=2 ")
	assert.Contains(t, string(b1), "(block)")
}

func TestFormatLIR(t *testing.T) {
	ctx := context.Background()

	fs := build(t, text)

	for _, f := range fs {
		err := rationalize.Run(ctx, f, rationalize.Config{Target: target.AMD64, SIMD: true, Check: true})
		require.NoError(t, err)
	}

	b, err := Format(ctx, nil, fs[0])
	require.NoError(t, err)

	t.Logf("lir:\n%s", b)

	s := string(b)

	assert.Contains(t, s, "func all\n")
	assert.Contains(t, s, "\tblock 0\n")
	assert.Contains(t, s, "\tblock 1\n")
	assert.Contains(t, s, "= il_offset.void 1")
	assert.Contains(t, s, "= store_lcl_var.int32 x n")
	assert.Contains(t, s, "= cls_var_addr.byref [0x10]")
	assert.Contains(t, s, "= store_lcl_fld.int32 s+8 n")
	assert.Contains(t, s, "= intrinsic.int32 Abs n")
	assert.Contains(t, s, "= lea.byref scale=4 offset=16 n")
	assert.Contains(t, s, "= call.void method=4 n")
	assert.Contains(t, s, "= store_dyn_blk.struct n")
	assert.NotContains(t, s, "= asg")
	assert.NotContains(t, s, "= comma")
	assert.NotContains(t, s, "= list")
}

func TestFormatUnsupported(t *testing.T) {
	_, err := Format(context.Background(), nil, 5)
	assert.ErrorContains(t, err, "unsupported type: int")
}
