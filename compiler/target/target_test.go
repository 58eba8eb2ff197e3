package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/lower/compiler/ir"
)

func TestLookup(t *testing.T) {
	for _, x := range All {
		y, ok := Lookup(x.Name)
		require.True(t, ok, "target %v", x)
		assert.Same(t, x, y)
		assert.Equal(t, x.Name, x.String())
	}

	_, ok := Lookup("riscv64")
	assert.False(t, ok)
}

func TestIntrinsics(t *testing.T) {
	assert.True(t, AMD64.IsTargetIntrinsic(ir.IntrinsicSqrt))
	assert.False(t, AMD64.IsImplementedByUserCall(ir.IntrinsicSqrt))

	assert.False(t, AMD64.IsTargetIntrinsic(ir.IntrinsicPow))
	assert.True(t, AMD64.IsImplementedByUserCall(ir.IntrinsicPow))

	assert.False(t, AMD64.IsTargetIntrinsic(ir.IntrinsicFloor))
	assert.True(t, ARM64.IsTargetIntrinsic(ir.IntrinsicFloor))
	assert.True(t, ARM64.Native().IsSet(ir.IntrinsicCeiling))

	for i := ir.IntrinsicNone; i < ir.IntrinsicCount; i++ {
		for _, x := range All {
			assert.NotEqual(t, x.IsTargetIntrinsic(i), x.IsImplementedByUserCall(i), "%v on %v", i, x)
		}
	}
}

func TestTargets(t *testing.T) {
	assert.True(t, AMD64.Xarch)
	assert.True(t, X86.Xarch)
	assert.False(t, ARM64.Xarch)

	assert.Equal(t, 4, X86.PtrSize)
	assert.Equal(t, 8, AMD64.PtrSize)

	x := New("test", 8, true, 0, false, 16)

	assert.False(t, x.IsTargetIntrinsic(ir.IntrinsicSqrt))
	assert.Equal(t, 0, x.ArgRegs)
}
