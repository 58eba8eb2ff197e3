package ir

import (
	"tlog.app/go/errors"
	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/lower/compiler/set"
)

type (
	// LIR is a doubly linked node sequence with designated ends.
	// The links live in the nodes, the ends in LIR.
	LIR struct {
		f *Func

		First, Last Expr

		// Verify makes linked replacements assert they precede the user.
		Verify bool
	}

	// Range is a contiguous piece of a LIR.
	Range struct {
		First, Last Expr
	}

	// TreeRange is the range covering a tree.
	// It is Closed if no node inside it is foreign to the tree.
	TreeRange struct {
		Range

		Closed  bool
		Effects Flags
	}
)

func (r *LIR) Func() *Func { return r.f }

func (r *LIR) IsEmpty() bool { return r.First == Nil }

// Nodes calls fn for each node from first to last.
func (r *LIR) Nodes(fn func(x Expr) bool) {
	for x := r.First; x != Nil; {
		next := r.f.Nodes[x].Next

		if !fn(x) || x == r.Last {
			return
		}

		x = next
	}
}

func (r *LIR) Contains(x Expr) (ok bool) {
	r.Nodes(func(y Expr) bool {
		ok = x == y
		return !ok
	})

	return ok
}

// Remove unlinks a single node.
func (r *LIR) Remove(x Expr) {
	f := r.f
	n := &f.Nodes[x]

	Assert(n.Linked, "remove of unlinked node %d (%v)", x, n.Op)

	prev, next := n.Prev, n.Next

	if prev != Nil {
		f.Nodes[prev].Next = next
	} else {
		Assert(r.First == x, "node %d has no prev but is not first", x)
		r.First = next
	}

	if next != Nil {
		f.Nodes[next].Prev = prev
	} else {
		Assert(r.Last == x, "node %d has no next but is not last", x)
		r.Last = prev
	}

	n.Prev, n.Next = Nil, Nil
	n.Linked = false
}

// InsertAfter links xs after anchor, in order.
// Nil anchor inserts at the beginning.
func (r *LIR) InsertAfter(anchor Expr, xs ...Expr) {
	for _, x := range xs {
		r.link(anchor, x)
		anchor = x
	}
}

// InsertBefore links xs before anchor, in order.
// Nil anchor appends to the end.
func (r *LIR) InsertBefore(anchor Expr, xs ...Expr) {
	prev := r.Last
	if anchor != Nil {
		prev = r.f.Nodes[anchor].Prev
	}

	r.InsertAfter(prev, xs...)
}

func (r *LIR) link(prev, x Expr) {
	f := r.f

	Assert(!f.Nodes[x].Linked, "insert of linked node %d (%v)", x, f.Nodes[x].Op)

	next := r.First
	if prev != Nil {
		next = f.Nodes[prev].Next
	}

	n := &f.Nodes[x]
	n.Prev, n.Next = prev, next
	n.Linked = true

	if prev != Nil {
		f.Nodes[prev].Next = x
	} else {
		r.First = x
	}

	if next != Nil {
		f.Nodes[next].Prev = x
	} else {
		r.Last = x
	}
}

// TreeRange finds the range of the tree rooted at root by walking back
// from the root until every operand has been met.
func (r *LIR) TreeRange(root Expr) (tr TreeRange) {
	f := r.f

	Assert(f.Nodes[root].Linked, "tree range of unlinked node %d (%v)", root, f.Nodes[root].Op)

	marks := set.MakeBits[Expr](0)
	pending := 0

	var mark func(x Expr)
	mark = func(x Expr) {
		f.Operands(x, func(_ int, y Expr) {
			if !f.Nodes[y].Linked || f.isArgList(y) {
				mark(y)
				return
			}

			if !marks.IsSet(y) {
				marks.Set(y)
				pending++
			}
		})
	}

	tr.Closed = true
	tr.First = root
	tr.Last = root
	tr.Effects = f.Nodes[root].Flags & AllEffect

	mark(root)

	for x := f.Nodes[root].Prev; pending != 0; x = f.Nodes[x].Prev {
		Assert(x != Nil, "operands of %d (%v) are not in linear order before it", root, f.Nodes[root].Op)

		tr.First = x

		if f.isArgList(x) {
			continue
		}

		if !marks.IsSet(x) {
			tr.Closed = false
			continue
		}

		marks.Clear(x)
		pending--

		tr.Effects |= f.Nodes[x].Flags & AllEffect

		mark(x)
	}

	return tr
}

// Delete removes and frees the whole range.
// The range must be closed and free of side effects.
func (r *LIR) Delete(tr TreeRange) {
	Assert(tr.Closed, "delete of not closed range %v", tr.Range)
	Assert(tr.Effects&AllEffect == 0, "delete of range with side effects %v: %v", tr.Range, tr.Effects)

	f := r.f

	var dead []Expr

	for x := tr.First; ; {
		next := f.Nodes[x].Next
		last := x == tr.Last

		r.Remove(x)
		dead = append(dead, x)

		if last {
			break
		}

		Assert(next != Nil, "range %v is not in linear order", tr.Range)

		x = next
	}

	for _, x := range dead {
		f.DecRefCnt(x)
		f.Free(x)
	}
}

// Check validates the linear order.
// Every node is met once, links agree, values are defined before use and
// used at most once, and nothing but linear form operators is left.
func (r *LIR) Check() error {
	f := r.f

	pos := make([]int32, len(f.Nodes))
	for i := range pos {
		pos[i] = -1
	}

	var order []Expr

	prev := Nil

	for x := r.First; x != Nil; x = f.Nodes[x].Next {
		n := &f.Nodes[x]

		switch {
		case n.Op == OpNone:
			return errors.New("freed node %d in linear order", x)
		case !n.Linked:
			return errors.New("node %d (%v) is not marked linked", x, n.Op)
		case n.Prev != prev:
			return errors.New("node %d (%v): prev link %d, expected %d", x, n.Op, n.Prev, prev)
		case pos[x] >= 0:
			return errors.New("node %d (%v) is met twice", x, n.Op)
		}

		if err := checkLinearOper(f, x); err != nil {
			return err
		}

		pos[x] = int32(len(order))
		order = append(order, x)
		prev = x

		if x == r.Last {
			break
		}
	}

	if prev != r.Last {
		return errors.New("last node %d is not reached, stopped at %d", r.Last, prev)
	}

	if prev != Nil && f.Nodes[prev].Next != Nil {
		return errors.New("last node %d has next link %d", prev, f.Nodes[prev].Next)
	}

	used := set.MakeBits[Expr](0)

	for i, x := range order {
		var err error

		f.Uses(x, func(y Expr) {
			switch {
			case err != nil:
			case pos[y] < 0:
				err = errors.New("operand %d (%v) of %d (%v) is not in linear order", y, f.Nodes[y].Op, x, f.Nodes[x].Op)
			case int(pos[y]) >= i:
				err = errors.New("operand %d (%v) of %d (%v) is defined after its use", y, f.Nodes[y].Op, x, f.Nodes[x].Op)
			case f.Nodes[y].Op.IsStore():
				err = errors.New("store %d (%v) is used as a value by %d (%v)", y, f.Nodes[y].Op, x, f.Nodes[x].Op)
			case used.IsSet(y):
				err = errors.New("node %d (%v) is used twice", y, f.Nodes[y].Op)
			default:
				used.Set(y)
			}
		})

		if err != nil {
			return err
		}
	}

	return nil
}

func checkLinearOper(f *Func, x Expr) error {
	n := &f.Nodes[x]

	switch n.Op {
	case OpAsg, OpAddr, OpBox, OpComma, OpArgPlace, OpQmark, OpColon:
		return errors.New("node %d: %v is not allowed in linear form", x, n.Op)
	case OpList:
		if n.Flags&FlagListAggregate == 0 {
			return errors.New("node %d: argument list is not allowed in linear form", x)
		}
	case OpNop:
		if n.Ops[0] != Nil {
			return errors.New("node %d: nop with operand is not allowed in linear form", x)
		}
	}

	return nil
}

func (r Range) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 2)
	b = e.AppendKeyInt64(b, "first", int64(r.First))
	b = e.AppendKeyInt64(b, "last", int64(r.Last))

	return b
}

// Splice puts the chain repl between prev and next,
// replacing whatever was linked there before.
// The chain must have its inner links set up.
// Dropped nodes, which were between prev and next but are not in repl,
// are unlinked.
func (r *LIR) Splice(prev, next Expr, repl Range, dropped ...Expr) {
	f := r.f

	for _, x := range dropped {
		n := &f.Nodes[x]

		n.Prev, n.Next = Nil, Nil
		n.Linked = false
	}

	for x := repl.First; ; x = f.Nodes[x].Next {
		f.Nodes[x].Linked = true

		if x == repl.Last {
			break
		}
	}

	f.Nodes[repl.First].Prev = prev
	f.Nodes[repl.Last].Next = next

	if prev != Nil {
		f.Nodes[prev].Next = repl.First
	} else {
		r.First = repl.First
	}

	if next != Nil {
		f.Nodes[next].Prev = repl.Last
	} else {
		r.Last = repl.Last
	}
}
