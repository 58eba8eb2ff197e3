package ir

type Type uint8

const (
	TypeUnknown Type = iota
	TypeVoid
	TypeInt32
	TypeInt64
	TypeNInt
	TypeFloat
	TypeDouble
	TypeRef
	TypeByRef
	TypeStruct
	TypeSIMD8
	TypeSIMD12
	TypeSIMD16
	TypeSIMD32

	typeCount
)

var typeNames = [typeCount]string{
	TypeUnknown: "unknown",
	TypeVoid:    "void",
	TypeInt32:   "int32",
	TypeInt64:   "int64",
	TypeNInt:    "nint",
	TypeFloat:   "float",
	TypeDouble:  "double",
	TypeRef:     "ref",
	TypeByRef:   "byref",
	TypeStruct:  "struct",
	TypeSIMD8:   "simd8",
	TypeSIMD12:  "simd12",
	TypeSIMD16:  "simd16",
	TypeSIMD32:  "simd32",
}

func (t Type) String() string {
	if t >= typeCount {
		return "type?"
	}

	return typeNames[t]
}

func ParseType(name string) (Type, bool) {
	for t := TypeVoid; t < typeCount; t++ {
		if typeNames[t] == name {
			return t, true
		}
	}

	return TypeUnknown, false
}

func (t Type) IsSIMD() bool   { return t >= TypeSIMD8 && t <= TypeSIMD32 }
func (t Type) IsStruct() bool { return t == TypeStruct || t.IsSIMD() }

// Size of a value of type t on a target with the given pointer size.
// Struct size is not a property of the type and is reported as 0.
func (t Type) Size(ptrSize int) int {
	switch t {
	case TypeInt32, TypeFloat:
		return 4
	case TypeInt64, TypeDouble:
		return 8
	case TypeNInt, TypeRef, TypeByRef:
		return ptrSize
	case TypeSIMD8:
		return 8
	case TypeSIMD12:
		return 12
	case TypeSIMD16:
		return 16
	case TypeSIMD32:
		return 32
	}

	return 0
}

// SIMDTypeForSize returns the vector type of the given byte size.
func SIMDTypeForSize(size int) Type {
	switch size {
	case 8:
		return TypeSIMD8
	case 12:
		return TypeSIMD12
	case 16:
		return TypeSIMD16
	case 32:
		return TypeSIMD32
	}

	Fatalf("unexpected simd size: %d", size)
	panic("unreachable")
}
