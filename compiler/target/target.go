package target

import (
	"github.com/slowlang/lower/compiler/ir"
	"github.com/slowlang/lower/compiler/set"
)

type (
	Target struct {
		Name string

		PtrSize int
		Xarch   bool

		// ArgRegs is the number of arguments passed in registers.
		ArgRegs int

		// SIMD is whether the target has the vector feature.
		SIMD bool

		// ArrayElemOffset is the offset of the first element from an array reference.
		ArrayElemOffset int

		intrinsics set.Bits[ir.Intrinsic]
	}
)

var (
	AMD64 = New("amd64", 8, true, 6, true, 16,
		ir.IntrinsicSqrt, ir.IntrinsicAbs, ir.IntrinsicRound)

	X86 = New("x86", 4, true, 2, true, 8,
		ir.IntrinsicSqrt, ir.IntrinsicAbs, ir.IntrinsicRound)

	ARM64 = New("arm64", 8, false, 8, true, 16,
		ir.IntrinsicSqrt, ir.IntrinsicAbs, ir.IntrinsicRound, ir.IntrinsicFloor, ir.IntrinsicCeiling)

	All = []*Target{AMD64, X86, ARM64}
)

func New(name string, ptr int, xarch bool, argRegs int, simd bool, elemOffset int, intrinsics ...ir.Intrinsic) *Target {
	t := &Target{
		Name:            name,
		PtrSize:         ptr,
		Xarch:           xarch,
		ArgRegs:         argRegs,
		SIMD:            simd,
		ArrayElemOffset: elemOffset,
		intrinsics:      set.MakeBits[ir.Intrinsic](0),
	}

	t.intrinsics.SetAll(intrinsics...)

	return t
}

func Lookup(name string) (*Target, bool) {
	for _, t := range All {
		if t.Name == name {
			return t, true
		}
	}

	return nil, false
}

// Native is the set of intrinsics with a native instruction.
func (t *Target) Native() *set.Bits[ir.Intrinsic] { return &t.intrinsics }

// IsTargetIntrinsic reports whether the intrinsic has a native instruction.
func (t *Target) IsTargetIntrinsic(id ir.Intrinsic) bool {
	return t.intrinsics.IsSet(id)
}

// IsImplementedByUserCall reports whether the intrinsic
// must be turned back into a call of its method.
func (t *Target) IsImplementedByUserCall(id ir.Intrinsic) bool {
	return !t.IsTargetIntrinsic(id)
}

func (t *Target) String() string { return t.Name }
