package morph

import (
	"tlog.app/go/tlog"

	"github.com/slowlang/lower/compiler/ir"
	"github.com/slowlang/lower/compiler/target"
)

type (
	seq struct {
		f *ir.Func

		first, last ir.Expr
	}
)

// SetStmtInfo computes evaluation costs and effect summaries of the tree.
// Effect-free arithmetic evaluates the costlier operand first.
func SetStmtInfo(f *ir.Func, root ir.Expr) {
	if root == ir.Nil {
		return
	}

	setInfo(f, root)
}

func setInfo(f *ir.Func, x ir.Expr) (level int) {
	var lv [3]int
	var eff ir.Flags

	ops := f.Nodes[x].Ops

	for i, y := range ops {
		if y == ir.Nil {
			continue
		}

		lv[i] = setInfo(f, y)
		eff |= f.Nodes[y].Flags & ir.AllEffect
	}

	n := &f.Nodes[x]
	n.Flags |= eff

	switch {
	case n.Op.IsLeaf():
		level = 1
		if n.Op == ir.OpCnsInt {
			level = 0
		}
	case n.Op == ir.OpCall:
		level = max(lv[0], lv[1]) + 1
	case ops[1] == ir.Nil:
		level = lv[0]

		if n.Op.IsIndir() {
			level++
		}
	default:
		l1, l2 := lv[0], lv[1]

		switch {
		case l1 == l2:
			level = l1 + 1
		default:
			level = max(l1, l2, lv[2])
		}

		if swappable(n.Op) && eff == 0 && l2 > l1 {
			n.Flags |= ir.FlagReverseOps
		}
	}

	n.Level = uint8(min(level, 255))

	return level
}

func swappable(op ir.Oper) bool {
	switch op {
	case ir.OpAdd, ir.OpSub, ir.OpMul:
		return true
	}

	return false
}

// SetTreeSeq links the tree in execution order and returns the chain.
// The chain is detached: its first node has no prev and its last no next.
//
// Argument list nodes directly follow their element,
// aggregate lists are ordinary postorder nodes.
func SetTreeSeq(f *ir.Func, root ir.Expr) ir.Range {
	s := seq{f: f, first: ir.Nil, last: ir.Nil}

	s.tree(root)

	return ir.Range{First: s.first, Last: s.last}
}

func (s *seq) tree(x ir.Expr) {
	f := s.f

	switch {
	case f.Op(x) == ir.OpList && !f.IsAggregate(x):
		s.list(x)
		return
	case f.Op(x) == ir.OpCall:
		for _, l := range f.Nodes[x].Ops[:2] {
			if l != ir.Nil {
				s.list(l)
			}
		}
	default:
		f.Operands(x, func(_ int, y ir.Expr) {
			s.tree(y)
		})
	}

	s.append(x)
}

func (s *seq) list(l ir.Expr) {
	for ; l != ir.Nil; l = s.f.Nodes[l].Ops[1] {
		ir.Assert(s.f.Op(l) == ir.OpList, "argument list expected: %d (%v)", l, s.f.Op(l))

		s.tree(s.f.Nodes[l].Ops[0])
		s.append(l)
	}
}

func (s *seq) append(x ir.Expr) {
	f := s.f
	n := &f.Nodes[x]

	n.Prev = s.last
	n.Next = ir.Nil
	n.Linked = true

	if s.last != ir.Nil {
		f.Nodes[s.last].Next = x
	} else {
		s.first = x
	}

	s.last = x
}

// MorphArgs binds call arguments.
// The first arguments go to registers: they become late arguments
// evaluated after the stack ones, an argplace stays in the early list.
func MorphArgs(f *ir.Func, call ir.Expr, t *target.Target) {
	ir.Assert(f.Op(call) == ir.OpCall, "morph args of not a call: %d (%v)", call, f.Op(call))
	ir.Assert(f.Nodes[call].Ops[1] == ir.Nil, "call %d args are already morphed", call)

	var entries []ir.ArgEntry
	var late []ir.Expr

	eff := ir.FlagCall
	i := 0

	for l := f.Nodes[call].Ops[0]; l != ir.Nil; l = f.Nodes[l].Ops[1] {
		v := f.Nodes[l].Ops[0]
		eff |= f.Nodes[v].Flags & ir.AllEffect

		if i >= t.ArgRegs {
			entries = append(entries, ir.ArgEntry{Node: v, Num: i, Reg: ir.NoReg})
			i++

			continue
		}

		place := f.NewOper(ir.OpArgPlace, f.Nodes[v].Type)

		f.Nodes[l].Ops[0] = place
		f.Nodes[v].Flags |= ir.FlagLateArg

		late = append(late, v)
		entries = append(entries, ir.ArgEntry{Node: v, Num: i, Reg: i, Late: true})
		i++
	}

	if len(late) != 0 {
		lst := f.NewList(late...)
		f.Nodes[call].Ops[1] = lst
	}

	n := &f.Nodes[call]
	n.Flags |= eff
	n.Call.Args = entries

	tlog.V("morph_args").Printw("morph args", "call", call, "args", len(entries), "late", len(late), "target", t.Name)
}
