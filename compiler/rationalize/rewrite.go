package rationalize

import (
	"tlog.app/go/tlog"

	"github.com/slowlang/lower/compiler/ir"
)

func (z *rationalizer) rewriteNode(e ir.Edge, st *ir.Stack) ir.WalkResult {
	f := z.f
	r := z.b.Range()

	node := e.Get(f)
	late := f.Nodes[node].Flags & ir.FlagLateArg

	// Argument lists are not visited in linear order, they directly precede the node.
	if f.Nodes[node].Linked {
		for prev := f.Nodes[node].Prev; prev != ir.Nil && f.Op(prev) == ir.OpList && !f.IsAggregate(prev); prev = f.Nodes[node].Prev {
			r.Remove(prev)
		}
	}

	if f.Op(node) == ir.OpList {
		if !f.IsAggregate(node) && f.Nodes[node].Linked {
			r.Remove(node)
		}

		return ir.WalkContinue
	}

	var use ir.Use
	if st.Height() < 2 {
		use = ir.DummyUse(r, e.Root)
	} else {
		use = ir.NewUse(r, e, st)
	}

	switch op := f.Op(node); op {
	case ir.OpAsg:
		z.rewriteAssignment(use)
	case ir.OpAddr:
		z.rewriteAddress(use)
	case ir.OpBox:
		use.ReplaceWith(f.Nodes[node].Ops[0])
		r.Remove(node)
	case ir.OpNop:
		// morph puts nops between defs and uses to prevent folding
		if op1 := f.Nodes[node].Ops[0]; op1 != ir.Nil {
			use.ReplaceWith(op1)
			r.Remove(node)
		}
	case ir.OpComma:
		z.rewriteComma(use)
	case ir.OpArgPlace:
		r.Remove(node)
	case ir.OpClsVar:
		if z.Target.Xarch {
			z.rewriteClsVar(use)
		}
	case ir.OpIntrinsic:
		ir.Assert(z.Target.IsTargetIntrinsic(f.Nodes[node].Intrinsic), "intrinsic %v must have been turned into a call", f.Nodes[node].Intrinsic)
	case ir.OpBlk, ir.OpObj:
		if z.SIMD {
			z.rewriteBlk(use)
		}
	case ir.OpLclFld, ir.OpStoreLclFld:
		z.fixupIfSIMDLocal(node)
	case ir.OpSIMD:
		z.rewriteSIMD(use)
	case ir.OpCnsInt,
		ir.OpLclVar, ir.OpLclVarAddr, ir.OpLclFldAddr, ir.OpStoreLclVar,
		ir.OpRegVar, ir.OpPhiArg, ir.OpClsVarAddr,
		ir.OpInd, ir.OpStoreInd, ir.OpDynBlk, ir.OpStoreBlk, ir.OpStoreObj, ir.OpStoreDynBlk,
		ir.OpCall, ir.OpLea,
		ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpNeg,
		ir.OpReturn, ir.OpILOffset:
	case ir.OpQmark, ir.OpColon:
		ir.Fatalf("%v %d must be expanded before linear form", op, node)
	case ir.OpList, ir.OpNone, ir.OpCount:
		ir.Fatalf("unexpected node %d (%v)", node, op)
	default:
		ir.Fatalf("unknown operator %d of node %d", op, node)
	}

	// unused local reads at the top level
	if use.IsDummy() && f.Op(node).IsLocalRead() {
		ir.Assert(f.Nodes[node].Flags&ir.AllEffect == 0, "local read %d has side effects: %v", node, f.Nodes[node].Flags)

		f.DecRefCnt(node)
		r.Remove(node)
	}

	ir.Assert(late == f.Nodes[node].Flags&ir.FlagLateArg, "late arg flag of node %d (%v) changed", node, f.Op(node))

	return ir.WalkContinue
}

func (z *rationalizer) rewriteAssignment(use ir.Use) {
	f := z.f
	r := z.b.Range()

	asg := use.Def()
	loc := f.Nodes[asg].Ops[0]
	val := f.Nodes[asg].Ops[1]

	locOp := f.Op(loc)

	if z.SIMD && f.Nodes[loc].Type.IsSIMD() && isInitBlkOp(f, asg) {
		if locOp == ir.OpLclVar {
			tp := f.Nodes[loc].Type
			base := f.Locals[f.Nodes[loc].Lcl].SIMDBase

			if base != ir.TypeUnknown {
				init := f.NewSIMD(ir.SIMDInit, tp, base, tp.Size(z.Target.PtrSize), val, ir.Nil)

				f.Nodes[asg].Ops[1] = init
				r.InsertAfter(val, init)

				val = init
			}
		} else {
			ir.Assert(locOp.IsBlk(), "simd init of %v", locOp)
		}
	}

	switch locOp {
	case ir.OpLclVar, ir.OpLclFld, ir.OpRegVar, ir.OpPhiArg:
		storeOp := ir.StoreForm(locOp)

		tlog.V("rewrite").Printw("rewrite asg", "node", asg, "loc", locOp, "to", storeOp)

		f.SetOper(asg, storeOp)

		l := f.Nodes[loc]
		s := f.N(asg)

		s.Lcl = l.Lcl
		s.Ssa = l.Ssa

		if locOp == ir.OpLclFld {
			s.Offs = l.Offs
			s.FieldSeq = l.FieldSeq
		}

		ir.CopyFlags(s, l.Flags, ir.LivenessMask)
		s.Flags &^= ir.FlagReverseOps

		s.Type = l.Type
		s.Ops = [3]ir.Expr{val, ir.Nil, ir.Nil}

		r.Remove(loc)
	case ir.OpInd:
		store := f.NewStoreInd(f.Nodes[loc].Type, f.Nodes[loc].Ops[0], val)

		s := f.N(store)
		ir.CopyFlags(s, f.Nodes[asg].Flags, ir.AllEffect)
		ir.CopyFlags(s, f.Nodes[loc].Flags, ir.IndFlags)

		if f.Nodes[asg].Flags&ir.FlagReverseOps != 0 {
			s.Flags |= ir.FlagReverseOps
		}

		tlog.V("rewrite").Printw("rewrite asg", "node", asg, "loc", locOp, "to", ir.OpStoreInd, "store", store)

		r.Remove(loc)
		r.InsertBefore(asg, store)
		use.ReplaceWith(store)
		r.Remove(asg)
	case ir.OpClsVar:
		f.SetOper(loc, ir.OpClsVarAddr)
		f.Nodes[loc].Type = ir.TypeByRef

		f.SetOper(asg, ir.OpStoreInd)

		tlog.V("rewrite").Printw("rewrite asg", "node", asg, "loc", locOp, "to", ir.OpStoreInd)
	case ir.OpBlk, ir.OpObj, ir.OpDynBlk:
		ir.Assert(f.Nodes[loc].Type.IsStruct(), "block store of %v", f.Nodes[loc].Type)

		storeOp := ir.StoreBlkForm(locOp)

		tlog.V("rewrite").Printw("rewrite asg", "node", asg, "loc", locOp, "to", storeOp)

		f.SetOper(loc, storeOp)

		s := f.N(loc)
		s.Flags &^= ir.FlagDontCSE
		s.Flags |= f.Nodes[asg].Flags & (ir.AllEffect | ir.FlagReverseOps | ir.FlagBlkVolatile | ir.FlagBlkUnaligned | ir.FlagBlkInit | ir.FlagDontCSE)
		s.Ops[1] = val

		// the store goes after its data
		r.Remove(loc)
		r.InsertBefore(asg, loc)
		use.ReplaceWith(loc)
		r.Remove(asg)
	default:
		ir.Fatalf("assignment to %v (node %d)", locOp, loc)
	}
}

func (z *rationalizer) rewriteAddress(use ir.Use) {
	f := z.f
	r := z.b.Range()

	addr := use.Def()
	loc := f.Nodes[addr].Ops[0]
	locOp := f.Op(loc)

	switch {
	case f.IsLocal(loc), locOp == ir.OpClsVar:
		to := ir.OpClsVarAddr
		if locOp != ir.OpClsVar {
			to = ir.AddrForm(locOp)
		}

		tlog.V("rewrite").Printw("rewrite addr", "node", addr, "loc", locOp, "to", to)

		f.SetOper(loc, to)

		l := f.N(loc)
		l.Type = ir.TypeByRef
		ir.CopyFlags(l, f.Nodes[addr].Flags, ir.AllEffect)

		use.ReplaceWith(loc)
		r.Remove(addr)
	case locOp.IsIndir():
		tlog.V("rewrite").Printw("rewrite addr of indir", "node", addr, "loc", locOp)

		use.ReplaceWith(f.Nodes[loc].Ops[0])
		r.Remove(loc)
		r.Remove(addr)
	}
}

func (z *rationalizer) rewriteComma(use ir.Use) {
	f := z.f
	r := z.b.Range()

	comma := use.Def()
	op1 := f.Nodes[comma].Ops[0]
	op2 := f.Nodes[comma].Ops[1]

	if f.Nodes[op1].Flags&ir.AllEffect == 0 {
		tr := r.TreeRange(op1)

		ir.Assert(tr.Closed, "comma %d: range of op1 is not closed", comma)
		ir.Assert(tr.Effects&ir.AllEffect == 0, "comma %d: range of op1 has effects: %v", comma, tr.Effects)

		r.Delete(tr)
	}

	switch {
	case !use.IsDummy():
		use.ReplaceWith(op2)
	case f.Nodes[op2].Flags&ir.AllEffect == 0:
		tr := r.TreeRange(op2)

		ir.Assert(tr.Closed, "comma %d: range of op2 is not closed", comma)
		ir.Assert(tr.Effects&ir.AllEffect == 0, "comma %d: range of op2 has effects: %v", comma, tr.Effects)

		r.Delete(tr)
	}

	r.Remove(comma)
}

func (z *rationalizer) rewriteClsVar(use ir.Use) {
	f := z.f
	r := z.b.Range()

	node := use.Def()

	if user := use.User(); user != ir.Nil && f.Op(user) == ir.OpAsg && f.Nodes[user].Ops[0] == node {
		// the assignment makes it a storeind
		return
	}

	tp := f.Nodes[node].Type

	f.SetOper(node, ir.OpClsVarAddr)
	f.Nodes[node].Type = ir.TypeByRef

	ind := f.NewOper(ir.OpInd, tp, node)

	r.InsertAfter(node, ind)
	use.ReplaceWith(ind)
}

// isInitBlkOp reports a block assignment filling the location with a scalar.
func isInitBlkOp(f *ir.Func, asg ir.Expr) bool {
	loc := f.Nodes[asg].Ops[0]
	val := f.Nodes[asg].Ops[1]

	blk := f.Nodes[loc].Type.IsStruct() || f.Op(loc).IsBlk()

	return blk && !f.Nodes[val].Type.IsStruct()
}
