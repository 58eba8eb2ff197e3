package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalkPostOrder(t *testing.T) {
	f, _ := testFunc()

	a := f.NewConst(TypeInt32, 1)
	b := f.NewConst(TypeInt32, 2)
	c := f.NewConst(TypeInt32, 3)
	sub := f.NewOper(OpSub, TypeInt32, a, b)
	add := f.NewOper(OpAdd, TypeInt32, sub, c)

	f.Nodes[add].Flags |= FlagReverseOps

	root := add

	var visited []Expr

	f.WalkPost(&root, func(e Edge, st *Stack) WalkResult {
		x := e.Get(f)

		assert.Equal(t, x, st.Index(0))
		assert.Equal(t, x == add, e.IsRoot())

		if x == a {
			assert.Equal(t, 3, st.Height())
			assert.Equal(t, sub, st.Index(1))
			assert.Equal(t, add, st.Index(2))
			assert.Equal(t, sub, e.User)
			assert.Equal(t, 0, e.Slot)
		}

		visited = append(visited, x)

		return WalkContinue
	})

	assert.Equal(t, []Expr{c, a, b, sub, add}, visited)
}

func TestWalkPostReplace(t *testing.T) {
	f, _ := testFunc()

	a := f.NewConst(TypeInt32, 1)
	neg := f.NewOper(OpNeg, TypeInt32, a)

	var repl, newRoot Expr

	root := neg

	f.WalkPost(&root, func(e Edge, st *Stack) WalkResult {
		switch x := e.Get(f); x {
		case a:
			repl = f.NewConst(TypeInt32, 2)
			e.Set(f, repl)
			st.Replace(0, repl)
		case neg:
			require.Equal(t, repl, f.Nodes[neg].Ops[0])

			newRoot = f.NewOper(OpReturn, TypeVoid, neg)
			e.Set(f, newRoot)
		}

		return WalkContinue
	})

	assert.Equal(t, repl, f.Nodes[neg].Ops[0])
	assert.Equal(t, newRoot, root)

	var st Stack

	st.Push(a)
	st.Push(neg)

	assert.Equal(t, neg, st.Pop())
	assert.Equal(t, 1, st.Height())
}

func TestWalkPostNil(t *testing.T) {
	f, _ := testFunc()

	root := Nil

	f.WalkPost(&root, func(e Edge, st *Stack) WalkResult {
		t.Errorf("unexpected visit")
		return WalkContinue
	})
}
