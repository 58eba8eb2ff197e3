package rationalize

import (
	"tlog.app/go/tlog"

	"github.com/slowlang/lower/compiler/ir"
)

// rewriteBlk keeps a block node only where the assignment needs block semantics.
func (z *rationalizer) rewriteBlk(use ir.Use) {
	f := z.f
	node := use.Def()

	keepBlk := false

	if user := use.User(); user != ir.Nil && f.Op(user) == ir.OpAsg && f.Nodes[user].Ops[0] == node {
		switch {
		case f.Nodes[node].Type == ir.TypeStruct, isInitBlkOp(f, user):
			keepBlk = true
		case !z.isAddrOfSIMDType(f.Nodes[node].Ops[0]):
			src := f.Nodes[user].Ops[1]

			if !f.IsLocal(src) && f.Op(src) != ir.OpSIMD {
				ir.Assert(f.Op(src).IsIndir(), "block copy source %d is %v", src, f.Op(src))

				keepBlk = !z.isAddrOfSIMDType(f.Nodes[src].Ops[0])
			}
		}
	}

	z.rewriteSIMDOperand(use, keepBlk)
}

// rewriteSIMDOperand turns a vector indirection into a plain load,
// or into the local itself if it's the address of a vector local.
func (z *rationalizer) rewriteSIMDOperand(use ir.Use, keepBlk bool) {
	f := z.f
	r := z.b.Range()

	node := use.Def()
	if !f.Op(node).IsIndir() {
		return
	}

	tp := f.Nodes[node].Type
	if !tp.IsSIMD() {
		return
	}

	addr := f.Nodes[node].Ops[0]

	switch {
	case f.Op(addr).IsLocalAddr() && z.isAddrOfSIMDType(addr):
		tlog.V("rewrite").Printw("simd indir of local", "node", node, "addr", addr, "type", tp)

		r.Remove(node)

		f.SetOper(addr, ir.LoadForm(f.Op(addr)))
		f.Nodes[addr].Type = tp

		use.ReplaceWith(addr)
	case !keepBlk:
		f.SetOper(node, ir.OpInd)
		f.Nodes[node].Type = tp
	}
}

func (z *rationalizer) isAddrOfSIMDType(addr ir.Expr) bool {
	f := z.f
	n := &f.Nodes[addr]

	switch n.Op {
	case ir.OpAddr:
		op1 := n.Ops[0]

		return f.Op(op1) == ir.OpLclVar && f.Locals[f.Nodes[op1].Lcl].Type.IsSIMD()
	case ir.OpLclVarAddr:
		return f.Locals[n.Lcl].Type.IsSIMD()
	}

	return false
}

// fixupIfSIMDLocal retypes field accesses covering a whole vector local.
func (z *rationalizer) fixupIfSIMDLocal(node ir.Expr) {
	if !z.SIMD {
		return
	}

	f := z.f
	n := &f.Nodes[node]
	l := &f.Locals[n.Lcl]

	if !l.Type.IsSIMD() {
		return
	}

	ptr := z.Target.PtrSize

	switch n.Op {
	case ir.OpLclFld:
		// Fields that can't be analyzed are left alone.
		if n.FieldSeq != ir.NotAField || n.Offs != 0 || n.Type != ir.TypeNInt || l.ExactSize != ptr {
			ir.Assert(l.Promotion != ir.PromotionIndependent, "field %d of independently promoted simd local %v", node, l.Name)
			return
		}

		n.Op = ir.OpLclVar
		n.Flags &^= ir.FlagVarUseAsg
	case ir.OpStoreLclFld:
		ir.Assert(n.Type == ir.TypeNInt, "store of simd local field %d of type %v", node, n.Type)

		n.Op = ir.OpStoreLclVar
		n.Flags &^= ir.FlagVarUseAsg
	}

	size := (l.ExactSize + ptr - 1) / ptr * ptr
	n.Type = ir.SIMDTypeForSize(size)

	tlog.V("rewrite").Printw("simd local fixup", "node", node, "op", n.Op, "type", n.Type)
}

func (z *rationalizer) rewriteSIMD(use ir.Use) {
	f := z.f
	r := z.b.Range()

	node := use.Def()

	ir.Assert(z.SIMD, "simd node %d without the vector feature", node)

	n := &f.Nodes[node]
	tp := ir.SIMDTypeForSize(int(n.SIMDSize))

	if n.Type == ir.TypeNInt && int(n.SIMDSize) == z.Target.PtrSize {
		ir.Assert(n.BaseType.Size(z.Target.PtrSize) == 4, "pointer sized simd %d of base %v", node, n.BaseType)

		n.Type = ir.TypeSIMD8
	}

	if n.SIMD != ir.SIMDInitArray {
		for _, x := range n.Ops[:2] {
			if x != ir.Nil && f.Nodes[x].Type == ir.TypeStruct {
				f.Nodes[x].Type = tp
			}
		}

		return
	}

	tlog.V("rewrite").Printw("simd array init to load", "node", node, "type", tp)

	base := n.BaseType.Size(z.Target.PtrSize)

	lea := f.NewLea(n.Ops[0], n.Ops[1], base, z.Target.ArrayElemOffset)
	ind := f.NewOper(ir.OpInd, tp, lea)

	r.InsertBefore(node, lea, ind)
	use.ReplaceWith(ind)
	r.Remove(node)
}
