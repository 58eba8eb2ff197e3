package rationalize

import (
	"tlog.app/go/tlog"

	"github.com/slowlang/lower/compiler/ir"
	"github.com/slowlang/lower/compiler/morph"
)

// rewriteIntrinsicAsCall replaces an intrinsic the target has no instruction for
// with the call of its method. The statement is still in tree form.
func (z *rationalizer) rewriteIntrinsicAsCall(s *ir.Stmt, e ir.Edge, st *ir.Stack) {
	f := z.f
	sl := &s.List

	intr := e.Get(f)

	tr := sl.TreeRange(intr)
	prev := f.Nodes[tr.First].Prev
	next := f.Nodes[intr].Next

	n := f.Nodes[intr]

	var args ir.Expr
	if n.Ops[1] == ir.Nil {
		args = f.NewList(n.Ops[0])
	} else {
		args = f.NewList(n.Ops[0], n.Ops[1])
	}

	call := f.NewCall(ir.CallUser, n.Method, n.Type, args)
	f.Nodes[call].Call.Entry = n.Entry

	morph.MorphArgs(f, call, z.Target)

	e.Set(f, call)

	morph.SetStmtInfo(f, call)
	rng := morph.SetTreeSeq(f, call)

	sl.Splice(prev, next, rng, intr)

	f.FixupIfCallArg(st, intr, call)

	eff := ir.FlagCall | f.Nodes[call].Flags&ir.AllEffect

	for i := 1; i < st.Height(); i++ {
		f.Nodes[st.Index(i)].Flags |= eff
	}

	st.Replace(0, call)

	tlog.V("rewrite").Printw("intrinsic to call", "intrinsic", n.Intrinsic, "node", intr, "call", call, "args", f.Nodes[call].Call.Args, "stack", st.Height())
}
