package ir

import "tlog.app/go/tlog"

// CallArgParent returns the call the visited node is a direct argument of,
// looking through argument lists and placeholders. Nil if there is none.
func (f *Func) CallArgParent(st *Stack) Expr {
	for i := 1; i < st.Height(); i++ {
		x := st.Index(i)
		n := &f.Nodes[x]

		switch n.Op {
		case OpList, OpArgPlace:
		case OpNop:
			// A nop morph put over a call may already be gone while still
			// on the stack. Its call is taken as the parent.
			// Only this exact shape is recognized.
			if op1 := n.Ops[0]; op1 != Nil && f.Nodes[op1].Op == OpCall {
				return op1
			}
		case OpCall:
			return x
		default:
			return Nil
		}
	}

	return Nil
}

// FixupIfCallArg redirects the argument table entry of oldArg to newArg
// if the visited node is a call argument.
func (f *Func) FixupIfCallArg(st *Stack, oldArg, newArg Expr) {
	call := f.CallArgParent(st)
	if call == Nil {
		return
	}

	f.FixupArgEntry(call, oldArg, newArg)
}

// FixupArgEntry redirects the call's argument table entry.
// Late arguments are tracked by the flag only.
func (f *Func) FixupArgEntry(call, oldArg, newArg Expr) {
	if f.Nodes[oldArg].Flags&FlagLateArg != 0 {
		f.Nodes[newArg].Flags |= FlagLateArg
		return
	}

	e := f.ArgEntryByNode(call, oldArg)
	Assert(e != nil, "no argument entry for node %d in call %d", oldArg, call)

	tlog.V("callarg").Printw("fixup arg entry", "call", call, "num", e.Num, "old", oldArg, "new", newArg)

	e.Node = newArg
}
