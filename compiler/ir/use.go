package ir

import "github.com/slowlang/lower/compiler/set"

type (
	// Use is a def-use edge inside a LIR.
	// A dummy use is the root of a statement, it has no user.
	Use struct {
		r    *LIR
		edge Edge

		stack *Stack
	}
)

// NewUse makes the use of the node at the top of st held in edge e.
// st is used to keep call argument tables in sync and may be nil.
func NewUse(r *LIR, e Edge, st *Stack) Use {
	return Use{r: r, edge: e, stack: st}
}

func DummyUse(r *LIR, root *Expr) Use {
	return Use{r: r, edge: Edge{User: Nil, Root: root}}
}

func (u Use) IsDummy() bool { return u.edge.User == Nil }

func (u Use) Def() Expr { return u.edge.Get(u.r.f) }

func (u Use) User() Expr { return u.edge.User }

func (u Use) Edge() Edge { return u.edge }

// ReplaceWith makes x the value of the use.
//
// A detached x takes the linear position of the replaced tree:
// nodes of the old tree x doesn't reuse are unlinked (not freed)
// and the detached nodes of x are linked in their place in postorder.
// A linked x must already be positioned before the user.
// Call argument tables referring to the old node are redirected to x.
func (u Use) ReplaceWith(x Expr) {
	f := u.r.f
	old := u.Def()

	if old == x {
		return
	}

	switch {
	case !f.Nodes[x].Linked:
		Assert(f.Nodes[old].Linked, "replace of unlinked node %d (%v) with detached %d", old, f.Nodes[old].Op, x)

		u.r.replaceTree(old, x)
	case u.r.Verify && !u.IsDummy() && f.Nodes[u.edge.User].Linked:
		Assert(u.r.precedes(x, u.edge.User), "replacement %d (%v) is not before user %d (%v)", x, f.Nodes[x].Op, u.edge.User, f.Nodes[u.edge.User].Op)
	}

	u.edge.Set(f, x)

	if u.stack != nil {
		f.FixupIfCallArg(u.stack, old, x)
	}
}

func (r *LIR) replaceTree(old, x Expr) {
	f := r.f

	tr := r.TreeRange(old)
	next := f.Nodes[tr.Last].Next

	reused := set.MakeBits[Expr](0)
	var seq []Expr

	var add func(y Expr)
	add = func(y Expr) {
		if reused.IsSet(y) {
			return
		}

		reused.Set(y)

		f.Operands(y, func(_ int, z Expr) { add(z) })

		if !f.Nodes[y].Linked {
			seq = append(seq, y)
		}
	}

	add(x)

	var drop func(y Expr)
	drop = func(y Expr) {
		if reused.IsSet(y) || !f.Nodes[y].Linked {
			return
		}

		f.Operands(y, func(_ int, z Expr) { drop(z) })

		r.Remove(y)
	}

	drop(old)

	r.InsertBefore(next, seq...)
}

func (r *LIR) precedes(x, y Expr) bool {
	for z := r.f.Nodes[x].Next; z != Nil; z = r.f.Nodes[z].Next {
		if z == y {
			return true
		}
	}

	return false
}
