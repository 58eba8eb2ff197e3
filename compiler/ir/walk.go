package ir

type (
	WalkResult int

	// Stack holds the ancestors of the visited node, index 0 is the node itself.
	Stack struct {
		s []Expr
	}

	// Edge is the slot holding a node: operand Slot of User,
	// or the statement root if User is Nil.
	Edge struct {
		User Expr
		Slot int
		Root *Expr
	}

	Visitor func(e Edge, st *Stack) WalkResult
)

const (
	WalkContinue WalkResult = iota
)

func (s *Stack) Push(x Expr) { s.s = append(s.s, x) }

func (s *Stack) Pop() (x Expr) {
	x = s.s[len(s.s)-1]
	s.s = s.s[:len(s.s)-1]

	return x
}

func (s *Stack) Height() int { return len(s.s) }

// Index returns the i-th node from the top.
func (s *Stack) Index(i int) Expr { return s.s[len(s.s)-1-i] }

// Replace puts x in place of the i-th node from the top.
func (s *Stack) Replace(i int, x Expr) { s.s[len(s.s)-1-i] = x }

func (e Edge) IsRoot() bool { return e.User == Nil }

func (e Edge) Get(f *Func) Expr {
	if e.User == Nil {
		return *e.Root
	}

	return f.Nodes[e.User].Ops[e.Slot]
}

func (e Edge) Set(f *Func, x Expr) {
	if e.User == Nil {
		*e.Root = x
		return
	}

	f.Nodes[e.User].Ops[e.Slot] = x
}

// WalkPost visits the tree in root in postorder,
// operands in evaluation order. The visitor may replace the node in its edge.
func (f *Func) WalkPost(root *Expr, visit Visitor) {
	if *root == Nil {
		return
	}

	var st Stack

	f.walkPost(Edge{User: Nil, Root: root}, &st, visit)
}

func (f *Func) walkPost(e Edge, st *Stack, visit Visitor) WalkResult {
	x := e.Get(f)

	st.Push(x)
	defer st.Pop()

	res := WalkContinue

	f.Operands(x, func(slot int, _ Expr) {
		if res != WalkContinue {
			return
		}

		res = f.walkPost(Edge{User: x, Slot: slot}, st, visit)
	})

	if res != WalkContinue {
		return res
	}

	return visit(e, st)
}
