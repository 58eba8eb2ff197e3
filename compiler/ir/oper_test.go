package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireFatal(t *testing.T, fn func()) *Fatal {
	t.Helper()

	var fatal *Fatal

	func() {
		defer func() {
			p := recover()
			fatal, _ = p.(*Fatal)
		}()

		fn()
	}()

	require.NotNil(t, fatal, "fatal expected")

	return fatal
}

func TestOperTable(t *testing.T) {
	for op := OpNone + 1; op < OpCount; op++ {
		name := op.String()
		require.NotEmpty(t, name, "oper %d", int(op))

		x, ok := ParseOper(name)
		if assert.True(t, ok, "oper %v", name) {
			assert.Equal(t, op, x)
		}
	}

	_, ok := ParseOper("none")
	assert.False(t, ok)

	assert.Equal(t, "oper?", OpCount.String())
}

func TestOperForms(t *testing.T) {
	for op := OpNone + 1; op < OpCount; op++ {
		op := op

		if op == OpLclVar || op == OpLclFld {
			st := StoreForm(op)
			assert.True(t, st.IsLocalStore(), "store form of %v", op)

			ad := AddrForm(op)
			assert.True(t, ad.IsLocalAddr(), "addr form of %v", op)
			assert.Equal(t, op, LoadForm(ad))
		} else {
			requireFatal(t, func() { StoreForm(op) })
			requireFatal(t, func() { AddrForm(op) })
		}

		if op.IsLocalAddr() {
			ld := LoadForm(op)

			assert.True(t, ld.IsLocalRead(), "load form of %v", op)
			assert.Equal(t, op, AddrForm(ld))
			assert.NotPanics(t, func() { StoreForm(ld) })
		} else {
			requireFatal(t, func() { LoadForm(op) })
		}

		if op == OpBlk || op == OpObj || op == OpDynBlk {
			st := StoreBlkForm(op)
			assert.True(t, st.IsBlk() && st.IsStore(), "store form of %v", op)
		} else {
			requireFatal(t, func() { StoreBlkForm(op) })
		}
	}
}

func TestStoreFormRegVar(t *testing.T) {
	fatal := requireFatal(t, func() { StoreForm(OpRegVar) })
	assert.Contains(t, fatal.Msg, "reg vars")
}

func TestOperKinds(t *testing.T) {
	assert.True(t, OpLclVar.IsLeaf())
	assert.True(t, OpRegVar.IsLocalRead())
	assert.True(t, OpPhiArg.IsLocalRead())
	assert.False(t, OpLclVarAddr.IsLocalRead())
	assert.True(t, OpStoreLclFld.IsLocal())

	assert.True(t, OpInd.IsIndir())
	assert.True(t, OpDynBlk.IsBlk())
	assert.False(t, OpInd.IsBlk())
	assert.True(t, OpStoreInd.IsStore())

	assert.Equal(t, 3, OpDynBlk.Arity())
	assert.Equal(t, 2, OpAsg.Arity())
	assert.Equal(t, 0, OpCnsInt.Arity())
}

func TestFlags(t *testing.T) {
	assert.Equal(t, "", Flags(0).String())
	assert.Equal(t, "asg|call", (FlagAsg | FlagCall).String())
	assert.Equal(t, "vardef|death", (FlagVarDef | FlagVarDeath).String())

	for i := 0; i < len(flagNames); i++ {
		fl := Flags(1 << i)

		x, ok := ParseFlag(fl.String())
		if assert.True(t, ok, "flag %v", fl) {
			assert.Equal(t, fl, x)
		}
	}

	_, ok := ParseFlag("lcl_var")
	assert.False(t, ok)

	n := Node{Flags: FlagVarDef | FlagExcept}
	CopyFlags(&n, FlagVarDeath|FlagCall, LivenessMask)

	assert.Equal(t, FlagVarDeath|FlagExcept, n.Flags)
}

func TestTypes(t *testing.T) {
	for tp := TypeVoid; tp < typeCount; tp++ {
		x, ok := ParseType(tp.String())
		if assert.True(t, ok, "type %v", tp) {
			assert.Equal(t, tp, x)
		}
	}

	assert.True(t, TypeSIMD12.IsSIMD())
	assert.True(t, TypeSIMD12.IsStruct())
	assert.True(t, TypeStruct.IsStruct())
	assert.False(t, TypeStruct.IsSIMD())

	assert.Equal(t, 4, TypeNInt.Size(4))
	assert.Equal(t, 8, TypeByRef.Size(8))
	assert.Equal(t, 12, TypeSIMD12.Size(8))

	for _, tp := range []Type{TypeSIMD8, TypeSIMD12, TypeSIMD16, TypeSIMD32} {
		assert.Equal(t, tp, SIMDTypeForSize(tp.Size(8)))
	}

	requireFatal(t, func() { SIMDTypeForSize(24) })
}

func TestIntrinsicNames(t *testing.T) {
	for i := IntrinsicNone + 1; i < IntrinsicCount; i++ {
		x, ok := ParseIntrinsic(i.String())
		if assert.True(t, ok, "intrinsic %v", i) {
			assert.Equal(t, i, x)
		}
	}

	for i := SIMDNone + 1; i < simdCount; i++ {
		x, ok := ParseSIMDIntrinsic(i.String())
		if assert.True(t, ok, "simd intrinsic %v", i) {
			assert.Equal(t, i, x)
		}
	}

	assert.True(t, IntrinsicPow.Binary())
	assert.False(t, IntrinsicSin.Binary())
}

func TestFatal(t *testing.T) {
	fatal := requireFatal(t, func() { Fatalf("bad node %d", 5) })

	assert.Equal(t, "bad node 5", fatal.Msg)
	assert.Contains(t, fatal.Error(), "bad node 5")

	assert.NotPanics(t, func() { Assert(true, "never") })

	fatal = requireFatal(t, func() { Assert(false, "cond %v", "failed") })
	assert.Equal(t, "cond failed", fatal.Msg)
}
