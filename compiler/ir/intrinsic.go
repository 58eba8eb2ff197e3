package ir

type (
	Intrinsic int

	SIMDIntrinsic uint8

	Method     int
	EntryPoint int
)

const (
	IntrinsicNone Intrinsic = iota
	IntrinsicSin
	IntrinsicCos
	IntrinsicTan
	IntrinsicSqrt
	IntrinsicAbs
	IntrinsicRound
	IntrinsicCosh
	IntrinsicSinh
	IntrinsicTanh
	IntrinsicAsin
	IntrinsicAcos
	IntrinsicAtan
	IntrinsicAtan2
	IntrinsicLog10
	IntrinsicPow
	IntrinsicExp
	IntrinsicCeiling
	IntrinsicFloor

	IntrinsicCount
)

const (
	SIMDNone SIMDIntrinsic = iota
	SIMDInit
	SIMDInitArray
	SIMDInitN
	SIMDAdd
	SIMDSub
	SIMDMul
	SIMDDiv
	SIMDDot
	SIMDGetItem
	SIMDEqual

	simdCount
)

var intrinsicNames = [IntrinsicCount]string{
	IntrinsicNone:    "none",
	IntrinsicSin:     "Sin",
	IntrinsicCos:     "Cos",
	IntrinsicTan:     "Tan",
	IntrinsicSqrt:    "Sqrt",
	IntrinsicAbs:     "Abs",
	IntrinsicRound:   "Round",
	IntrinsicCosh:    "Cosh",
	IntrinsicSinh:    "Sinh",
	IntrinsicTanh:    "Tanh",
	IntrinsicAsin:    "Asin",
	IntrinsicAcos:    "Acos",
	IntrinsicAtan:    "Atan",
	IntrinsicAtan2:   "Atan2",
	IntrinsicLog10:   "Log10",
	IntrinsicPow:     "Pow",
	IntrinsicExp:     "Exp",
	IntrinsicCeiling: "Ceiling",
	IntrinsicFloor:   "Floor",
}

var simdNames = [simdCount]string{
	SIMDNone:      "none",
	SIMDInit:      "Init",
	SIMDInitArray: "InitArray",
	SIMDInitN:     "InitN",
	SIMDAdd:       "Add",
	SIMDSub:       "Sub",
	SIMDMul:       "Mul",
	SIMDDiv:       "Div",
	SIMDDot:       "Dot",
	SIMDGetItem:   "GetItem",
	SIMDEqual:     "Equal",
}

func (i Intrinsic) String() string {
	if i < 0 || i >= IntrinsicCount {
		return "intrinsic?"
	}

	return intrinsicNames[i]
}

// Binary reports intrinsics taking two operands.
func (i Intrinsic) Binary() bool {
	return i == IntrinsicAtan2 || i == IntrinsicPow
}

func ParseIntrinsic(name string) (Intrinsic, bool) {
	for i := IntrinsicNone + 1; i < IntrinsicCount; i++ {
		if intrinsicNames[i] == name {
			return i, true
		}
	}

	return IntrinsicNone, false
}

func (i SIMDIntrinsic) String() string {
	if i >= simdCount {
		return "simd?"
	}

	return simdNames[i]
}

func ParseSIMDIntrinsic(name string) (SIMDIntrinsic, bool) {
	for i := SIMDNone + 1; i < simdCount; i++ {
		if simdNames[i] == name {
			return i, true
		}
	}

	return SIMDNone, false
}
