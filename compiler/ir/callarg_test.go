package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callFixture struct {
	f *Func
	r *LIR

	x, y   Expr
	l1, l2 Expr
	call   Expr
}

func newCallFixture() *callFixture {
	f, b := testFunc()

	c := &callFixture{f: f, r: b.Range()}

	c.x = f.NewConst(TypeInt32, 1)
	c.y = f.NewConst(TypeInt32, 2)
	c.l1 = f.NewList(c.x, c.y)
	c.l2 = f.Nodes[c.l1].Ops[1]
	c.call = f.NewCall(CallUser, 1, TypeVoid, c.l1)

	f.Nodes[c.call].Call.Args = []ArgEntry{
		{Node: c.x, Num: 0, Reg: NoReg},
		{Node: c.y, Num: 1, Reg: NoReg},
	}

	c.r.InsertBefore(Nil, c.x, c.l1, c.y, c.l2, c.call)

	return c
}

func stack(xs ...Expr) *Stack {
	var st Stack

	for _, x := range xs {
		st.Push(x)
	}

	return &st
}

func TestCallArgParent(t *testing.T) {
	c := newCallFixture()
	f := c.f

	assert.Equal(t, c.call, f.CallArgParent(stack(c.call, c.l1, c.x)))
	assert.Equal(t, c.call, f.CallArgParent(stack(c.call, c.l1, c.l2, c.y)))

	neg := f.NewOper(OpNeg, TypeInt32, c.x)

	assert.Equal(t, Nil, f.CallArgParent(stack(c.call, c.l1, neg, c.x)))
	assert.Equal(t, Nil, f.CallArgParent(stack(c.x)))
}

func TestCallArgParentNop(t *testing.T) {
	c := newCallFixture()
	f := c.f

	// a nop over the call stands for it
	nop := f.NewOper(OpNop, TypeVoid, c.call)

	assert.Equal(t, c.call, f.CallArgParent(stack(nop, c.l1, c.x)))

	// other nops are looked through
	z := f.NewConst(TypeInt32, 3)
	other := f.NewOper(OpNop, TypeInt32, z)

	assert.Equal(t, c.call, f.CallArgParent(stack(c.call, c.l1, other, z)))
	assert.Equal(t, Nil, f.CallArgParent(stack(other, z)))
}

func TestFixupIfCallArg(t *testing.T) {
	c := newCallFixture()
	f := c.f

	st := stack(c.call, c.l1, c.l2, c.y)

	u := NewUse(c.r, Edge{User: c.l2, Slot: 0}, st)

	z := f.NewConst(TypeInt32, 3)

	u.ReplaceWith(z)

	args := f.Nodes[c.call].Call.Args

	assert.Equal(t, z, f.Nodes[c.l2].Ops[0])
	assert.Equal(t, []Expr{c.x, c.l1, z, c.l2, c.call}, order(c.r))
	assert.False(t, f.Nodes[c.y].Linked)
	assert.Equal(t, c.x, args[0].Node)
	assert.Equal(t, z, args[1].Node)
	assert.Equal(t, &args[1], f.ArgEntryByNode(c.call, z))
	assert.Nil(t, f.ArgEntryByNode(c.call, c.y))
}

func TestFixupLateArg(t *testing.T) {
	c := newCallFixture()
	f := c.f

	f.Nodes[c.y].Flags |= FlagLateArg
	f.Nodes[c.call].Call.Args[1] = ArgEntry{Node: c.y, Num: 1, Reg: 1, Late: true}

	z := f.NewConst(TypeInt32, 3)

	f.FixupIfCallArg(stack(c.call, c.l1, c.l2, c.y), c.y, z)

	assert.NotZero(t, f.Nodes[z].Flags&FlagLateArg)
	assert.Equal(t, c.y, f.Nodes[c.call].Call.Args[1].Node)
}

func TestFixupMissingEntry(t *testing.T) {
	c := newCallFixture()
	f := c.f

	f.Nodes[c.call].Call.Args = nil

	z := f.NewConst(TypeInt32, 3)

	fatal := requireFatal(t, func() { f.FixupIfCallArg(stack(c.call, c.l1, c.x), c.x, z) })
	assert.Contains(t, fatal.Msg, "no argument entry")

	// not an argument, nothing to fix
	require.NotPanics(t, func() { f.FixupIfCallArg(stack(c.x), c.x, z) })
}
