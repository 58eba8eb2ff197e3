package ir

import (
	"strings"
)

type Flags uint32

const (
	FlagAsg Flags = 1 << iota
	FlagCall
	FlagExcept
	FlagGlobRef
	FlagOrderSideEff

	FlagVarDef
	FlagVarUseAsg
	FlagVarUseDef
	FlagVarDeath

	FlagReverseOps
	FlagDontCSE
	FlagLateArg

	FlagIndVolatile
	FlagIndUnaligned
	FlagIndNonFaulting

	FlagBlkInit
	FlagListAggregate
)

const (
	AllEffect    = FlagAsg | FlagCall | FlagExcept | FlagGlobRef | FlagOrderSideEff
	LivenessMask = FlagVarDef | FlagVarUseAsg | FlagVarUseDef | FlagVarDeath
	IndFlags     = FlagIndVolatile | FlagIndUnaligned | FlagIndNonFaulting

	FlagBlkVolatile  = FlagIndVolatile
	FlagBlkUnaligned = FlagIndUnaligned
)

var flagNames = []string{
	"asg",
	"call",
	"except",
	"globref",
	"order",
	"vardef",
	"useasg",
	"usedef",
	"death",
	"reverse",
	"dontcse",
	"late",
	"volatile",
	"unaligned",
	"nonfaulting",
	"init",
	"aggregate",
}

func (f Flags) String() string {
	if f == 0 {
		return ""
	}

	var b strings.Builder

	for i, n := range flagNames {
		if f&(1<<i) == 0 {
			continue
		}

		if b.Len() != 0 {
			b.WriteByte('|')
		}

		b.WriteString(n)
	}

	return b.String()
}

// ParseFlag returns the flag with the given name.
func ParseFlag(name string) (Flags, bool) {
	for i, n := range flagNames {
		if n == name {
			return 1 << i, true
		}
	}

	return 0, false
}

// CopyFlags replaces the mask bits of dst with those of src.
func CopyFlags(dst *Node, src Flags, mask Flags) {
	dst.Flags &^= mask
	dst.Flags |= src & mask
}
