package ir

import (
	"nikand.dev/go/heap"
	"tlog.app/go/tlog/tlwire"
)

type (
	// Expr is a node handle. It stays valid until the node is freed.
	Expr int32

	LclNum   int32
	SsaNum   int32
	FieldSeq int32

	CallKind      uint8
	PromotionType uint8

	Node struct {
		Op    Oper
		Type  Type
		Flags Flags

		Ops [3]Expr

		Prev, Next Expr
		Linked     bool

		Level uint8

		// locals
		Lcl      LclNum
		Ssa      SsaNum
		Offs     uint16
		FieldSeq FieldSeq

		// constant value, class variable handle, il offset
		Val int64

		// lea
		Scale  uint8
		Offset int32

		// intrinsic
		Intrinsic Intrinsic
		Method    Method
		Entry     EntryPoint

		// simd
		SIMD     SIMDIntrinsic
		BaseType Type
		SIMDSize uint8

		Call *Call
	}

	Call struct {
		Kind   CallKind
		Method Method
		Entry  EntryPoint

		Args []ArgEntry
	}

	ArgEntry struct {
		Node Expr
		Num  int
		Reg  int
		Late bool
	}

	Local struct {
		Name      string
		Type      Type
		ExactSize int
		SIMDBase  Type

		Promotion PromotionType

		RefCnt int
	}

	Stmt struct {
		Root Expr
		List LIR

		ILOffset    int64
		HasILOffset bool
	}

	Block struct {
		Num   int
		Stmts []*Stmt

		LIR   LIR
		IsLIR bool
	}

	Func struct {
		Name string

		Nodes  []Node
		Locals []Local
		Blocks []*Block

		// IsLIR is set once every block is in linear form.
		IsLIR bool

		free heap.Heap[Expr]
	}
)

const (
	Nil Expr = -1

	NoReg = -1

	NoSsa SsaNum = -1

	NoFields  FieldSeq = 0
	NotAField FieldSeq = -1
)

const (
	CallUser CallKind = iota
	CallHelper
)

const (
	PromotionNone PromotionType = iota
	PromotionIndependent
	PromotionDependent
)

func NewFunc(name string) *Func {
	return &Func{
		Name: name,
		free: heap.Heap[Expr]{Less: exprLess},
	}
}

func exprLess(d []Expr, i, j int) bool { return d[i] < d[j] }

// N returns node data. The pointer is invalidated by the next allocation.
func (f *Func) N(e Expr) *Node {
	return &f.Nodes[e]
}

func (f *Func) Op(e Expr) Oper {
	return f.Nodes[e].Op
}

func (f *Func) NewLocal(name string, tp Type, size int) LclNum {
	if size == 0 {
		size = tp.Size(8)
	}

	f.Locals = append(f.Locals, Local{
		Name:      name,
		Type:      tp,
		ExactSize: size,
	})

	return LclNum(len(f.Locals) - 1)
}

func (f *Func) NewBlock() *Block {
	b := &Block{
		Num: len(f.Blocks),
		LIR: LIR{f: f, First: Nil, Last: Nil},
	}

	f.Blocks = append(f.Blocks, b)

	return b
}

func (f *Func) NewStmt(b *Block, root Expr) *Stmt {
	s := &Stmt{
		Root: root,
		List: LIR{f: f, First: Nil, Last: Nil},
	}

	b.Stmts = append(b.Stmts, s)

	return s
}

// Range returns the linear range of the block.
func (b *Block) Range() *LIR { return &b.LIR }

// MakeLIR designates the block's linear range.
func (b *Block) MakeLIR(first, last Expr) {
	b.LIR.First = first
	b.LIR.Last = last
	b.IsLIR = true
}

// LinkStmts chains the statement lists into one sequence
// and makes it the block's linear range.
func (b *Block) LinkStmts() {
	if len(b.Stmts) == 0 {
		b.MakeLIR(Nil, Nil)
		return
	}

	f := b.LIR.f
	last := Nil

	for _, s := range b.Stmts {
		Assert(s.List.First != Nil && f.Nodes[s.List.First].Prev == Nil, "statement list of %d (%v) is not detached at the start", s.Root, f.Nodes[s.Root].Op)
		Assert(s.List.Last == s.Root && f.Nodes[s.Root].Next == Nil, "statement root %d is not the last node", s.Root)

		if last != Nil {
			f.Nodes[last].Next = s.List.First
		}

		f.Nodes[s.List.First].Prev = last
		last = s.Root
	}

	b.MakeLIR(b.Stmts[0].List.First, last)
}

func (f *Func) alloc(op Oper, tp Type) Expr {
	n := Node{
		Op:   op,
		Type: tp,
		Ops:  [3]Expr{Nil, Nil, Nil},
		Prev: Nil,
		Next: Nil,
		Ssa:  NoSsa,
	}

	if f.free.Len() != 0 {
		e := f.free.Pop()
		f.Nodes[e] = n

		return e
	}

	f.Nodes = append(f.Nodes, n)

	return Expr(len(f.Nodes) - 1)
}

// Free makes the node handle available for reuse.
func (f *Func) Free(e Expr) {
	n := &f.Nodes[e]

	Assert(n.Op != OpNone, "double free of node %d", e)
	Assert(!n.Linked, "free of linked node %d", e)

	*n = Node{Op: OpNone, Ops: [3]Expr{Nil, Nil, Nil}, Prev: Nil, Next: Nil}

	f.free.Push(e)
}

// SetOper changes the operator in place, the way nodes are retargeted
// between paired forms. Side data of the old form is kept.
func (f *Func) SetOper(e Expr, op Oper) {
	n := &f.Nodes[e]

	if op == OpCall && n.Call == nil {
		n.Call = &Call{}
	}

	n.Op = op
}

// Operands calls fn for every operand slot in evaluation order.
func (f *Func) Operands(e Expr, fn func(slot int, x Expr)) {
	slots := [3]int{0, 1, 2}

	if f.Nodes[e].Flags&FlagReverseOps != 0 {
		slots[0], slots[1] = 1, 0
	}

	for _, s := range slots {
		x := f.Nodes[e].Ops[s]
		if x == Nil {
			continue
		}

		fn(s, x)
	}
}

// Uses calls fn for every value the node consumes in linear form.
// Argument lists are looked through, argplaces skipped.
func (f *Func) Uses(e Expr, fn func(x Expr)) {
	f.Operands(e, func(_ int, x Expr) {
		switch {
		case f.isArgList(x):
			f.Uses(x, fn)
		case f.Nodes[x].Op == OpArgPlace:
		default:
			fn(x)
		}
	})
}

// isArgList reports list nodes used as call argument plumbing.
func (f *Func) isArgList(x Expr) bool {
	n := &f.Nodes[x]

	return n.Op == OpList && n.Flags&FlagListAggregate == 0
}

// operEffects returns the side effects the operator has on its own.
func operEffects(op Oper) Flags {
	switch op {
	case OpAsg, OpStoreInd, OpStoreBlk, OpStoreObj, OpStoreDynBlk, OpStoreLclVar, OpStoreLclFld:
		return FlagAsg
	case OpCall:
		return FlagCall
	case OpInd, OpBlk, OpObj, OpDynBlk:
		return FlagExcept
	case OpClsVar:
		return FlagGlobRef
	}

	return 0
}

// NewOper creates a node with the given operands.
// Effect flags are the union of the operands' and the operator's own.
func (f *Func) NewOper(op Oper, tp Type, ops ...Expr) Expr {
	Assert(len(ops) <= 3, "too many operands for %v: %d", op, len(ops))

	e := f.alloc(op, tp)

	fl := operEffects(op)

	for i, x := range ops {
		f.Nodes[e].Ops[i] = x

		if x != Nil {
			fl |= f.Nodes[x].Flags & AllEffect
		}
	}

	f.Nodes[e].Flags = fl

	return e
}

func (f *Func) NewConst(tp Type, val int64) Expr {
	e := f.alloc(OpCnsInt, tp)
	f.Nodes[e].Val = val

	return e
}

func (f *Func) NewLcl(op Oper, tp Type, lcl LclNum) Expr {
	Assert(op.IsLocal(), "not a local opcode: %v", op)

	e := f.alloc(op, tp)
	f.Nodes[e].Lcl = lcl

	f.Locals[lcl].RefCnt++

	return e
}

func (f *Func) NewLclFld(op Oper, tp Type, lcl LclNum, offs uint16, seq FieldSeq) Expr {
	e := f.NewLcl(op, tp, lcl)

	n := &f.Nodes[e]
	n.Offs = offs
	n.FieldSeq = seq

	return e
}

func (f *Func) NewClsVar(tp Type, handle int64) Expr {
	e := f.NewOper(OpClsVar, tp)
	f.Nodes[e].Val = handle

	return e
}

func (f *Func) NewStoreInd(tp Type, addr, val Expr) Expr {
	return f.NewOper(OpStoreInd, tp, addr, val)
}

// NewList chains items into argument list nodes and returns the head.
func (f *Func) NewList(items ...Expr) Expr {
	head := Nil

	for i := len(items) - 1; i >= 0; i-- {
		head = f.NewOper(OpList, TypeVoid, items[i], head)
	}

	return head
}

// ListItems returns the elements of a list chain.
func (f *Func) ListItems(head Expr) (r []Expr) {
	for l := head; l != Nil; l = f.Nodes[l].Ops[1] {
		Assert(f.Nodes[l].Op == OpList, "list expected: %v", f.Nodes[l].Op)

		r = append(r, f.Nodes[l].Ops[0])
	}

	return r
}

func (f *Func) NewCall(kind CallKind, method Method, tp Type, args Expr) Expr {
	e := f.NewOper(OpCall, tp, args, Nil)

	f.Nodes[e].Call = &Call{
		Kind:   kind,
		Method: method,
	}

	return e
}

func (f *Func) NewIntrinsic(id Intrinsic, method Method, tp Type, op1, op2 Expr) Expr {
	e := f.NewOper(OpIntrinsic, tp, op1, op2)

	n := &f.Nodes[e]
	n.Intrinsic = id
	n.Method = method

	return e
}

func (f *Func) NewSIMD(id SIMDIntrinsic, tp, base Type, size int, op1, op2 Expr) Expr {
	e := f.NewOper(OpSIMD, tp, op1, op2)

	n := &f.Nodes[e]
	n.SIMD = id
	n.BaseType = base
	n.SIMDSize = uint8(size)

	return e
}

func (f *Func) NewLea(base, index Expr, scale int, offset int) Expr {
	e := f.NewOper(OpLea, TypeByRef, base, index)

	n := &f.Nodes[e]
	n.Scale = uint8(scale)
	n.Offset = int32(offset)

	return e
}

func (f *Func) NewILOffset(off int64) Expr {
	e := f.alloc(OpILOffset, TypeVoid)
	f.Nodes[e].Val = off

	return e
}

// ArgEntryByNode finds the argument table entry holding node.
func (f *Func) ArgEntryByNode(call, node Expr) *ArgEntry {
	c := f.Nodes[call].Call
	if c == nil {
		return nil
	}

	for i := range c.Args {
		if c.Args[i].Node == node {
			return &c.Args[i]
		}
	}

	return nil
}

// DecRefCnt drops the local reference held by a local node.
func (f *Func) DecRefCnt(e Expr) {
	n := &f.Nodes[e]
	if !n.Op.IsLocal() {
		return
	}

	l := &f.Locals[n.Lcl]
	if l.RefCnt > 0 {
		l.RefCnt--
	}
}

// IsLocal reports local reads and stores.
func (f *Func) IsLocal(e Expr) bool { return f.Nodes[e].Op.IsLocal() }

// IsAggregate reports list nodes used as aggregates,
// which survive into linear form.
func (f *Func) IsAggregate(e Expr) bool {
	n := &f.Nodes[e]

	return n.Op == OpList && n.Flags&FlagListAggregate != 0
}

func (a ArgEntry) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 3)
	b = e.AppendKeyInt64(b, "num", int64(a.Num))
	b = e.AppendKeyInt64(b, "node", int64(a.Node))
	b = e.AppendKeyInt64(b, "reg", int64(a.Reg))

	return b
}
