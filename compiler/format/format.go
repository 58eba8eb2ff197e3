package format

import (
	"context"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/slowlang/lower/compiler/ir"
)

// Format prints functions in tree form as re-parsable text
// and functions in linear form one node per line.
func Format(ctx context.Context, b []byte, x any) ([]byte, error) {
	return format(ctx, b, x, 0)
}

func format(ctx context.Context, b []byte, x any, d int) (_ []byte, err error) {
	switch x := x.(type) {
	case []*ir.Func:
		for i, f := range x {
			if i != 0 {
				b = append(b, '\n')
			}

			b, err = format(ctx, b, f, d)
			if err != nil {
				return nil, errors.Wrap(err, "func %v", f.Name)
			}
		}

		return b, nil
	case *ir.Func:
		if x.IsLIR {
			return formatLIR(ctx, b, x, d)
		}

		return formatHIR(ctx, b, x, d)
	default:
		return nil, errors.New("unsupported type: %T", x)
	}
}

func formatHIR(ctx context.Context, b []byte, f *ir.Func, d int) (_ []byte, err error) {
	b = app(b, d, "(func %s\n", f.Name)

	for _, l := range f.Locals {
		b = app(b, d+1, "(local %s %v", l.Name, l.Type)

		if l.ExactSize != l.Type.Size(8) {
			b = hfmt.Appendf(b, " size=%d", l.ExactSize)
		}

		if l.SIMDBase != ir.TypeUnknown {
			b = hfmt.Appendf(b, " base=%v", l.SIMDBase)
		}

		switch l.Promotion {
		case ir.PromotionIndependent:
			b = append(b, " promoted=independent"...)
		case ir.PromotionDependent:
			b = append(b, " promoted=dependent"...)
		}

		b = append(b, ")\n"...)
	}

	for _, blk := range f.Blocks {
		b = app(b, d+1, "(block")

		for _, s := range blk.Stmts {
			b = append(b, '\n')
			b = app(b, d+2, "(stmt")

			if s.HasILOffset {
				b = hfmt.Appendf(b, " il=%d", s.ILOffset)
			}

			b = append(b, ' ')

			b, err = formatExpr(ctx, b, f, s.Root)
			if err != nil {
				return nil, errors.Wrap(err, "block %d", blk.Num)
			}

			b = append(b, ')')
		}

		b = append(b, ")\n"...)
	}

	b = app(b, d, ")\n")

	return b, nil
}

func formatExpr(ctx context.Context, b []byte, f *ir.Func, x ir.Expr) (_ []byte, err error) {
	if x == ir.Nil {
		return nil, errors.New("nil operand")
	}

	n := &f.Nodes[x]

	if n.Op == ir.OpNone {
		return nil, errors.New("freed node %d", x)
	}

	b = hfmt.Appendf(b, "(%v.%v", n.Op, n.Type)

	var ops []ir.Expr

	switch {
	case n.Op == ir.OpCnsInt, n.Op == ir.OpILOffset:
		b = hfmt.Appendf(b, " %d", n.Val)
	case n.Op.IsLocal():
		b = hfmt.Appendf(b, " %s", f.Locals[n.Lcl].Name)

		if n.Offs != 0 {
			b = hfmt.Appendf(b, " offs=%d", n.Offs)
		}

		switch n.FieldSeq {
		case ir.NoFields:
		case ir.NotAField:
			b = append(b, " seq=none"...)
		default:
			b = hfmt.Appendf(b, " seq=%d", n.FieldSeq)
		}

		ops = n.Ops[:1]
	case n.Op == ir.OpClsVar, n.Op == ir.OpClsVarAddr:
		b = hfmt.Appendf(b, " handle=%d", n.Val)
	case n.Op == ir.OpIntrinsic:
		b = hfmt.Appendf(b, " %v method=%d", n.Intrinsic, n.Method)
		b = appNonZero(b, " entry=%d", int64(n.Entry))
		ops = n.Ops[:2]
	case n.Op == ir.OpSIMD:
		b = hfmt.Appendf(b, " %v base=%v size=%d", n.SIMD, n.BaseType, n.SIMDSize)
		ops = n.Ops[:2]
	case n.Op == ir.OpLea:
		b = hfmt.Appendf(b, " scale=%d offset=%d", n.Scale, n.Offset)
		ops = n.Ops[:2]
	case n.Op == ir.OpCall:
		c := n.Call

		if c.Kind == ir.CallHelper {
			b = append(b, " helper"...)
		}

		b = hfmt.Appendf(b, " method=%d", c.Method)
		b = appNonZero(b, " entry=%d", int64(c.Entry))

		for _, a := range c.Args {
			ops = append(ops, a.Node)
		}

		if len(c.Args) == 0 {
			ops = f.ListItems(n.Ops[0])
		}
	case n.Op == ir.OpList:
		ops = f.ListItems(x)
		b = appFlags(b, n.Flags)
		n = nil
	default:
		ops = n.Ops[:]
	}

	if n != nil {
		b = appFlags(b, n.Flags)

		if n.Ssa != ir.NoSsa {
			b = hfmt.Appendf(b, " ssa=%d", n.Ssa)
		}
	}

	for _, y := range ops {
		if y == ir.Nil {
			continue
		}

		b = append(b, ' ')

		b, err = formatExpr(ctx, b, f, y)
		if err != nil {
			return nil, err
		}
	}

	b = append(b, ')')

	return b, nil
}

func formatLIR(ctx context.Context, b []byte, f *ir.Func, d int) (_ []byte, err error) {
	b = app(b, d, "func %s\n", f.Name)

	for _, blk := range f.Blocks {
		b = app(b, d+1, "block %d\n", blk.Num)

		blk.Range().Nodes(func(x ir.Expr) bool {
			b = app(b, d+2, "")
			b = Node(b, f, x)
			b = append(b, '\n')

			return true
		})
	}

	return b, nil
}

// Node prints a single linear node.
func Node(b []byte, f *ir.Func, x ir.Expr) []byte {
	n := &f.Nodes[x]

	b = hfmt.Appendf(b, "n%d = %v.%v", x, n.Op, n.Type)

	switch {
	case n.Op == ir.OpCnsInt, n.Op == ir.OpILOffset:
		b = hfmt.Appendf(b, " %d", n.Val)
	case n.Op.IsLocal():
		b = hfmt.Appendf(b, " %s", f.Locals[n.Lcl].Name)

		if n.Op == ir.OpLclFld || n.Op == ir.OpStoreLclFld || n.Op == ir.OpLclFldAddr {
			b = hfmt.Appendf(b, "+%d", n.Offs)
		}
	case n.Op == ir.OpClsVar, n.Op == ir.OpClsVarAddr:
		b = hfmt.Appendf(b, " [0x%x]", n.Val)
	case n.Op == ir.OpIntrinsic:
		b = hfmt.Appendf(b, " %v", n.Intrinsic)
	case n.Op == ir.OpSIMD:
		b = hfmt.Appendf(b, " %v<%v,%d>", n.SIMD, n.BaseType, n.SIMDSize)
	case n.Op == ir.OpLea:
		b = hfmt.Appendf(b, " scale=%d offset=%d", n.Scale, n.Offset)
	case n.Op == ir.OpCall:
		b = hfmt.Appendf(b, " method=%d", n.Call.Method)
	}

	f.Uses(x, func(y ir.Expr) {
		b = hfmt.Appendf(b, " n%d", y)
	})

	if fl := n.Flags; fl != 0 {
		b = hfmt.Appendf(b, "  %v", fl)
	}

	return b
}

func appFlags(b []byte, fl ir.Flags) []byte {
	fl &^= ir.AllEffect | ir.FlagLateArg

	for i := 0; i < 32; i++ {
		if fl&(1<<i) == 0 {
			continue
		}

		b = append(b, ' ')
		b = append(b, ir.Flags(1<<i).String()...)
	}

	return b
}

func appNonZero(b []byte, f string, v int64) []byte {
	if v == 0 {
		return b
	}

	return hfmt.Appendf(b, f, v)
}

func app(b []byte, d int, f string, args ...any) []byte {
	const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"
	b = append(b, tabs[:d]...)
	b = hfmt.Appendf(b, f, args...)
	return b
}
