package morph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/lower/compiler/ir"
	"github.com/slowlang/lower/compiler/target"
)

var stackOnly = target.New("stack", 8, true, 0, false, 16)

func seqOrder(f *ir.Func, r ir.Range) (l []ir.Expr) {
	for x := r.First; x != ir.Nil; x = f.Nodes[x].Next {
		l = append(l, x)

		if x == r.Last {
			break
		}
	}

	return l
}

func TestSetTreeSeqArgs(t *testing.T) {
	f := ir.NewFunc("test")

	x := f.NewConst(ir.TypeInt32, 1)
	y := f.NewConst(ir.TypeInt32, 2)
	l1 := f.NewList(x, y)
	l2 := f.Nodes[l1].Ops[1]
	call := f.NewCall(ir.CallUser, 1, ir.TypeVoid, l1)

	MorphArgs(f, call, stackOnly)

	args := f.Nodes[call].Call.Args

	require.Len(t, args, 2)
	assert.Equal(t, ir.ArgEntry{Node: x, Num: 0, Reg: ir.NoReg}, args[0])
	assert.Equal(t, ir.ArgEntry{Node: y, Num: 1, Reg: ir.NoReg}, args[1])
	assert.Equal(t, ir.Nil, f.Nodes[call].Ops[1])

	SetStmtInfo(f, call)
	r := SetTreeSeq(f, call)

	assert.Equal(t, []ir.Expr{x, l1, y, l2, call}, seqOrder(f, r))
	assert.Equal(t, ir.Nil, f.Nodes[r.First].Prev)
	assert.Equal(t, ir.Nil, f.Nodes[r.Last].Next)

	for _, e := range seqOrder(f, r) {
		assert.True(t, f.Nodes[e].Linked, "node %d", e)
	}
}

func TestMorphArgsLate(t *testing.T) {
	f := ir.NewFunc("test")

	x := f.NewConst(ir.TypeInt32, 1)
	y := f.NewConst(ir.TypeInt64, 2)
	z := f.NewConst(ir.TypeInt32, 3)
	l1 := f.NewList(x, y, z)
	call := f.NewCall(ir.CallUser, 1, ir.TypeVoid, l1)

	MorphArgs(f, call, target.X86)

	args := f.Nodes[call].Call.Args

	require.Len(t, args, 3)
	assert.Equal(t, ir.ArgEntry{Node: x, Num: 0, Reg: 0, Late: true}, args[0])
	assert.Equal(t, ir.ArgEntry{Node: y, Num: 1, Reg: 1, Late: true}, args[1])
	assert.Equal(t, ir.ArgEntry{Node: z, Num: 2, Reg: ir.NoReg}, args[2])

	assert.NotZero(t, f.Nodes[x].Flags&ir.FlagLateArg)
	assert.NotZero(t, f.Nodes[y].Flags&ir.FlagLateArg)
	assert.Zero(t, f.Nodes[z].Flags&ir.FlagLateArg)

	early := f.ListItems(l1)

	require.Len(t, early, 3)
	assert.Equal(t, ir.OpArgPlace, f.Op(early[0]))
	assert.Equal(t, ir.TypeInt64, f.Nodes[early[1]].Type)
	assert.Equal(t, z, early[2])

	m1 := f.Nodes[call].Ops[1]
	assert.Equal(t, []ir.Expr{x, y}, f.ListItems(m1))

	l2 := f.Nodes[l1].Ops[1]
	l3 := f.Nodes[l2].Ops[1]
	m2 := f.Nodes[m1].Ops[1]

	r := SetTreeSeq(f, call)

	assert.Equal(t, []ir.Expr{early[0], l1, early[1], l2, z, l3, x, m1, y, m2, call}, seqOrder(f, r))

	fatal := func() (fatal *ir.Fatal) {
		defer func() {
			fatal, _ = recover().(*ir.Fatal)
		}()

		MorphArgs(f, call, target.X86)

		return nil
	}()

	require.NotNil(t, fatal)
	assert.Contains(t, fatal.Msg, "already morphed")
}

func TestSetStmtInfo(t *testing.T) {
	f := ir.NewFunc("test")

	lx := f.NewLocal("x", ir.TypeInt32, 0)
	lp := f.NewLocal("p", ir.TypeByRef, 0)

	// cheap operand first: evaluate the local before the constant
	c := f.NewConst(ir.TypeInt32, 1)
	x := f.NewLcl(ir.OpLclVar, ir.TypeInt32, lx)
	add := f.NewOper(ir.OpAdd, ir.TypeInt32, c, x)

	SetStmtInfo(f, add)

	assert.NotZero(t, f.Nodes[add].Flags&ir.FlagReverseOps)
	assert.Equal(t, uint8(0), f.Nodes[c].Level)
	assert.Equal(t, uint8(1), f.Nodes[x].Level)
	assert.Equal(t, []ir.Expr{x, c, add}, seqOrder(f, SetTreeSeq(f, add)))

	// effects keep the order
	c = f.NewConst(ir.TypeInt32, 1)
	p := f.NewLcl(ir.OpLclVar, ir.TypeByRef, lp)
	ind := f.NewOper(ir.OpInd, ir.TypeInt32, p)
	sub := f.NewOper(ir.OpSub, ir.TypeInt32, c, ind)

	f.Nodes[sub].Flags &^= ir.AllEffect

	SetStmtInfo(f, sub)

	assert.Zero(t, f.Nodes[sub].Flags&ir.FlagReverseOps)
	assert.Equal(t, ir.FlagExcept, f.Nodes[sub].Flags&ir.AllEffect)
	assert.Equal(t, uint8(2), f.Nodes[ind].Level)
}

func TestSetTreeSeqAggregate(t *testing.T) {
	f := ir.NewFunc("test")

	x := f.NewConst(ir.TypeInt32, 1)
	y := f.NewConst(ir.TypeInt32, 2)
	l1 := f.NewList(x, y)
	l2 := f.Nodes[l1].Ops[1]

	f.Nodes[l1].Flags |= ir.FlagListAggregate
	f.Nodes[l2].Flags |= ir.FlagListAggregate

	ret := f.NewOper(ir.OpReturn, ir.TypeVoid, l1)

	assert.Equal(t, []ir.Expr{x, y, l2, l1, ret}, seqOrder(f, SetTreeSeq(f, ret)))
}
