package front

import (
	"context"
	"strconv"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/lower/compiler/ast"
	"github.com/slowlang/lower/compiler/ir"
	"github.com/slowlang/lower/compiler/morph"
	"github.com/slowlang/lower/compiler/parse"
	"github.com/slowlang/lower/compiler/target"
)

type (
	// Front builds tree form functions from the parsed text.
	Front struct {
		st *parse.State
		t  *target.Target
	}

	state struct {
		*Front

		f      *ir.Func
		locals map[string]ir.LclNum
	}

	// node is an expression list split into parts.
	node struct {
		op   ir.Oper
		tp   ir.Type
		pos  int
		ops  []ir.Expr
		vals []int64

		words []string
		attrs map[string]string

		flags ir.Flags
	}
)

func New(st *parse.State, t *target.Target) *Front {
	return &Front{st: st, t: t}
}

func (c *Front) Build(ctx context.Context, x ast.Node) (fs []*ir.Func, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "front", "target", c.t.Name)
	defer tr.Finish("err", &err)

	file, ok := x.(*ast.File)
	if !ok {
		return nil, parse.NewTypeExpectedError(file)
	}

	for _, x := range file.Items {
		l, ok := x.(ast.List)
		if !ok {
			return nil, errors.New("%v: func expected", c.st.Pos(c.pos(x)))
		}

		f, err := c.buildFunc(ctx, l)
		if err != nil {
			return nil, err
		}

		fs = append(fs, f)
	}

	return fs, nil
}

func (c *Front) buildFunc(ctx context.Context, l ast.List) (_ *ir.Func, err error) {
	if c.head(l) != "func" || len(l.Items) < 2 {
		return nil, errors.New("%v: (func name ...) expected", c.st.Pos(l.Pos))
	}

	name, ok := c.word(l.Items[1])
	if !ok {
		return nil, errors.New("%v: func name expected", c.st.Pos(c.pos(l.Items[1])))
	}

	s := &state{
		Front:  c,
		f:      ir.NewFunc(name),
		locals: map[string]ir.LclNum{},
	}

	defer func() {
		p := recover()
		if p == nil {
			return
		}

		fatal, ok := p.(*ir.Fatal)
		if !ok {
			panic(p)
		}

		err = errors.Wrap(fatal, "func %v", name)
	}()

	for _, x := range l.Items[2:] {
		l, ok := x.(ast.List)
		if !ok {
			return nil, errors.New("%v: list expected", c.st.Pos(c.pos(x)))
		}

		switch h := c.head(l); h {
		case "local":
			err = s.local(l)
		case "block":
			err = s.block(ctx, l)
		default:
			err = errors.New("%v: unexpected %q", c.st.Pos(l.Pos), h)
		}

		if err != nil {
			return nil, errors.Wrap(err, "func %v", name)
		}
	}

	tlog.SpanFromContext(ctx).V("front").Printw("func", "name", name, "nodes", len(s.f.Nodes), "locals", len(s.f.Locals), "blocks", len(s.f.Blocks))

	return s.f, nil
}

// local is (local name type [size=N] [base=type] [promoted=independent|dependent]).
func (s *state) local(l ast.List) (err error) {
	n, err := s.split(l, 1)
	if err != nil {
		return err
	}

	if len(n.words) != 2 {
		return errors.New("%v: (local name type) expected", s.st.Pos(l.Pos))
	}

	name := n.words[0]

	if _, ok := s.locals[name]; ok {
		return errors.New("%v: local %v redeclared", s.st.Pos(l.Pos), name)
	}

	tp, ok := ir.ParseType(n.words[1])
	if !ok {
		return errors.New("%v: unknown type %q", s.st.Pos(l.Pos), n.words[1])
	}

	size, err := n.intAttr("size", 0)
	if err != nil {
		return errors.Wrap(err, "%v", s.st.Pos(l.Pos))
	}

	lcl := s.f.NewLocal(name, tp, int(size))
	d := &s.f.Locals[lcl]

	if b, ok := n.attrs["base"]; ok {
		d.SIMDBase, ok = ir.ParseType(b)
		if !ok {
			return errors.New("%v: unknown base type %q", s.st.Pos(l.Pos), b)
		}
	}

	switch p := n.attrs["promoted"]; p {
	case "":
	case "independent":
		d.Promotion = ir.PromotionIndependent
	case "dependent":
		d.Promotion = ir.PromotionDependent
	default:
		return errors.New("%v: unknown promotion %q", s.st.Pos(l.Pos), p)
	}

	s.locals[name] = lcl

	return nil
}

// block is (block (stmt [il=N] expr)...).
func (s *state) block(ctx context.Context, l ast.List) error {
	b := s.f.NewBlock()

	for _, x := range l.Items[1:] {
		sl, ok := x.(ast.List)
		if !ok || s.head(sl) != "stmt" {
			return errors.New("%v: (stmt expr) expected", s.st.Pos(s.pos(x)))
		}

		var root ast.List
		var il string

		for _, y := range sl.Items[1:] {
			switch y := y.(type) {
			case ast.Attr:
				if k := s.text(y.Key.Base); k != "il" {
					return errors.New("%v: unexpected attribute %q", s.st.Pos(y.Pos), k)
				}

				il = s.text(s.base(y.Value))
			case ast.List:
				if root.End != 0 {
					return errors.New("%v: one expression per statement", s.st.Pos(y.Pos))
				}

				root = y
			default:
				return errors.New("%v: expression expected", s.st.Pos(s.pos(y)))
			}
		}

		if root.End == 0 {
			return errors.New("%v: empty statement", s.st.Pos(sl.Pos))
		}

		e, err := s.expr(root)
		if err != nil {
			return errors.Wrap(err, "block %d", b.Num)
		}

		st := s.f.NewStmt(b, e)

		if il != "" {
			st.ILOffset, err = strconv.ParseInt(il, 0, 64)
			if err != nil {
				return errors.Wrap(err, "%v: il offset", s.st.Pos(sl.Pos))
			}

			st.HasILOffset = true
		}

		morph.SetStmtInfo(s.f, e)

		rng := morph.SetTreeSeq(s.f, e)
		st.List.First, st.List.Last = rng.First, rng.Last
	}

	return nil
}

func (s *state) expr(l ast.List) (e ir.Expr, err error) {
	f := s.f

	n, err := s.split(l, 0)
	if err != nil {
		return ir.Nil, err
	}

	op := n.op

	switch {
	case op == ir.OpCnsInt:
		if len(n.vals) != 1 {
			return ir.Nil, n.errorf(s, "constant value expected")
		}

		e = f.NewConst(n.tp, n.vals[0])
	case op.IsLocal():
		e, err = s.local1(n)
	case op == ir.OpClsVar || op == ir.OpClsVarAddr:
		h, err := n.intAttr("handle", 0)
		if err != nil {
			return ir.Nil, err
		}

		e = f.NewClsVar(n.tp, h)
		f.SetOper(e, op)
	case op == ir.OpIntrinsic:
		e, err = s.intrinsic(n)
	case op == ir.OpSIMD:
		e, err = s.simd(n)
	case op == ir.OpCall:
		e, err = s.call(n)
	case op == ir.OpLea:
		e, err = s.lea(n)
	case op == ir.OpList:
		if len(n.ops) == 0 {
			return ir.Nil, n.errorf(s, "empty list")
		}

		e = f.NewList(n.ops...)

		for l := e; l != ir.Nil; l = f.Nodes[l].Ops[1] {
			f.Nodes[l].Flags |= n.flags
		}

		return e, nil
	case op == ir.OpILOffset:
		if len(n.vals) != 1 {
			return ir.Nil, n.errorf(s, "il offset value expected")
		}

		e = f.NewILOffset(n.vals[0])
	case op == ir.OpDynBlk:
		if len(n.ops) != 2 {
			return ir.Nil, n.errorf(s, "(dyn_blk addr size) expected")
		}

		e = f.NewOper(op, n.tp, n.ops[0], ir.Nil, n.ops[1])
	default:
		e, err = s.oper(n)
	}

	if err != nil {
		return ir.Nil, err
	}

	f.Nodes[e].Flags |= n.flags

	if ssa, ok := n.attrs["ssa"]; ok {
		v, err := strconv.ParseInt(ssa, 0, 32)
		if err != nil {
			return ir.Nil, n.errorf(s, "ssa: %v", err)
		}

		f.Nodes[e].Ssa = ir.SsaNum(v)
	}

	return e, nil
}

func (s *state) oper(n *node) (e ir.Expr, err error) {
	f := s.f
	op := n.op

	switch op {
	case ir.OpNop, ir.OpReturn:
		if len(n.ops) > 1 {
			return ir.Nil, n.errorf(s, "at most one operand expected")
		}
	default:
		if len(n.ops) != op.Arity() {
			return ir.Nil, n.errorf(s, "%d operands expected, got %d", op.Arity(), len(n.ops))
		}
	}

	tp := n.tp

	if tp == ir.TypeUnknown {
		switch op {
		case ir.OpAsg, ir.OpBox, ir.OpNop, ir.OpNeg, ir.OpAdd, ir.OpSub, ir.OpMul:
			if len(n.ops) != 0 {
				tp = f.Nodes[n.ops[0]].Type
			}
		case ir.OpComma, ir.OpColon, ir.OpQmark:
			tp = f.Nodes[n.ops[1]].Type
		case ir.OpAddr:
			tp = ir.TypeByRef
		}

		if tp == ir.TypeUnknown {
			tp = ir.TypeVoid
		}
	}

	e = f.NewOper(op, tp, n.ops...)

	if op == ir.OpAsg {
		loc := n.ops[0]

		switch f.Op(loc) {
		case ir.OpLclVar:
			f.Nodes[loc].Flags |= ir.FlagVarDef
		case ir.OpLclFld:
			f.Nodes[loc].Flags |= ir.FlagVarDef | ir.FlagVarUseAsg
		}
	}

	return e, nil
}

func (s *state) local1(n *node) (e ir.Expr, err error) {
	f := s.f
	op := n.op

	if len(n.words) == 0 {
		return ir.Nil, n.errorf(s, "local name expected")
	}

	lcl, ok := s.locals[n.words[0]]
	if !ok {
		return ir.Nil, n.errorf(s, "undefined local %q", n.words[0])
	}

	tp := n.tp
	if tp == ir.TypeUnknown {
		tp = f.Locals[lcl].Type

		if op.IsLocalAddr() {
			tp = ir.TypeByRef
		}
	}

	offs, err := n.intAttr("offs", 0)
	if err != nil {
		return ir.Nil, err
	}

	seq := ir.NoFields

	switch v := n.attrs["seq"]; v {
	case "":
	case "none":
		seq = ir.NotAField
	default:
		x, err := strconv.ParseInt(v, 0, 32)
		if err != nil {
			return ir.Nil, n.errorf(s, "field seq: %v", err)
		}

		seq = ir.FieldSeq(x)
	}

	want := 0
	if op.IsLocalStore() {
		want = 1
	}

	if len(n.ops) != want {
		return ir.Nil, n.errorf(s, "%d operands expected, got %d", want, len(n.ops))
	}

	e = f.NewLclFld(op, tp, lcl, uint16(offs), seq)

	if want != 0 {
		f.Nodes[e].Ops[0] = n.ops[0]
		f.Nodes[e].Flags |= ir.FlagAsg | ir.FlagVarDef | f.Nodes[n.ops[0]].Flags&ir.AllEffect
	}

	return e, nil
}

func (s *state) intrinsic(n *node) (e ir.Expr, err error) {
	if len(n.words) == 0 {
		return ir.Nil, n.errorf(s, "intrinsic name expected")
	}

	id, ok := ir.ParseIntrinsic(n.words[0])
	if !ok {
		return ir.Nil, n.errorf(s, "unknown intrinsic %q", n.words[0])
	}

	want := 1
	if id.Binary() {
		want = 2
	}

	if len(n.ops) != want {
		return ir.Nil, n.errorf(s, "%v: %d operands expected, got %d", id, want, len(n.ops))
	}

	method, err := n.intAttr("method", 0)
	if err != nil {
		return ir.Nil, err
	}

	entry, err := n.intAttr("entry", 0)
	if err != nil {
		return ir.Nil, err
	}

	tp := n.tp
	if tp == ir.TypeUnknown {
		tp = s.f.Nodes[n.ops[0]].Type
	}

	ops := append(n.ops, ir.Nil)

	e = s.f.NewIntrinsic(id, ir.Method(method), tp, ops[0], ops[1])
	s.f.Nodes[e].Entry = ir.EntryPoint(entry)

	return e, nil
}

func (s *state) simd(n *node) (e ir.Expr, err error) {
	if len(n.words) == 0 {
		return ir.Nil, n.errorf(s, "simd intrinsic name expected")
	}

	id, ok := ir.ParseSIMDIntrinsic(n.words[0])
	if !ok {
		return ir.Nil, n.errorf(s, "unknown simd intrinsic %q", n.words[0])
	}

	if len(n.ops) < 1 || len(n.ops) > 2 {
		return ir.Nil, n.errorf(s, "1 or 2 operands expected, got %d", len(n.ops))
	}

	base, ok := ir.ParseType(n.attrs["base"])
	if !ok {
		return ir.Nil, n.errorf(s, "simd base type expected")
	}

	size, err := n.intAttr("size", int64(n.tp.Size(s.t.PtrSize)))
	if err != nil {
		return ir.Nil, err
	}

	ops := append(n.ops, ir.Nil)

	return s.f.NewSIMD(id, n.tp, base, int(size), ops[0], ops[1]), nil
}

func (s *state) call(n *node) (e ir.Expr, err error) {
	f := s.f

	kind := ir.CallUser

	for _, w := range n.words {
		if w != "helper" {
			return ir.Nil, n.errorf(s, "unexpected word %q", w)
		}

		kind = ir.CallHelper
	}

	method, err := n.intAttr("method", 0)
	if err != nil {
		return ir.Nil, err
	}

	entry, err := n.intAttr("entry", 0)
	if err != nil {
		return ir.Nil, err
	}

	args := f.NewList(n.ops...)

	e = f.NewCall(kind, ir.Method(method), n.tp, args)
	f.Nodes[e].Call.Entry = ir.EntryPoint(entry)

	morph.MorphArgs(f, e, s.t)

	return e, nil
}

func (s *state) lea(n *node) (e ir.Expr, err error) {
	if len(n.ops) < 1 || len(n.ops) > 2 {
		return ir.Nil, n.errorf(s, "(lea base [index]) expected")
	}

	scale, err := n.intAttr("scale", 1)
	if err != nil {
		return ir.Nil, err
	}

	offset, err := n.intAttr("offset", 0)
	if err != nil {
		return ir.Nil, err
	}

	ops := append(n.ops, ir.Nil)

	return s.f.NewLea(ops[0], ops[1], int(scale), int(offset)), nil
}

// split parses the list items after the head.
// Lists are built as operands, flag words are collected into flags
// unless the operator takes names.
func (s *state) split(l ast.List, skip int) (n *node, err error) {
	n = &node{
		pos:   l.Pos,
		attrs: map[string]string{},
	}

	items := l.Items

	if skip == 0 {
		h := s.head(l)
		if h == "" {
			return nil, errors.New("%v: operator expected", s.st.Pos(l.Pos))
		}

		name, tname, _ := strings.Cut(h, ".")

		var ok bool

		n.op, ok = ir.ParseOper(name)
		if !ok {
			return nil, errors.New("%v: unknown operator %q", s.st.Pos(l.Pos), name)
		}

		if tname != "" {
			n.tp, ok = ir.ParseType(tname)
			if !ok {
				return nil, errors.New("%v: unknown type %q", s.st.Pos(l.Pos), tname)
			}
		}

		skip = 1
	}

	named := n.op != ir.OpNone && takesName(n.op)

	for _, x := range items[skip:] {
		switch x := x.(type) {
		case ast.List:
			e, err := s.expr(x)
			if err != nil {
				return nil, err
			}

			n.ops = append(n.ops, e)
		case ast.Int:
			v, err := strconv.ParseInt(s.text(x.Base), 0, 64)
			if err != nil {
				return nil, errors.Wrap(err, "%v", s.st.Pos(x.Pos))
			}

			n.vals = append(n.vals, v)
		case ast.Attr:
			n.attrs[s.text(x.Key.Base)] = s.text(s.base(x.Value))
		case ast.Word:
			w := s.text(x.Base)

			if fl, ok := ir.ParseFlag(w); ok && n.op != ir.OpNone && (!named || len(n.words) != 0) {
				n.flags |= fl
				continue
			}

			n.words = append(n.words, w)
		}
	}

	if !named && n.op != ir.OpNone && n.op != ir.OpCall && len(n.words) != 0 {
		return nil, errors.New("%v: unexpected word %q", s.st.Pos(l.Pos), n.words[0])
	}

	return n, nil
}

func takesName(op ir.Oper) bool {
	return op.IsLocal() || op == ir.OpIntrinsic || op == ir.OpSIMD
}

func (n *node) intAttr(key string, def int64) (int64, error) {
	v, ok := n.attrs[key]
	if !ok {
		return def, nil
	}

	x, err := strconv.ParseInt(v, 0, 64)
	if err != nil {
		return 0, errors.Wrap(err, "attribute %v", key)
	}

	return x, nil
}

func (n *node) errorf(s *state, format string, args ...any) error {
	return errors.Wrap(errors.New(format, args...), "%v: %v", s.st.Pos(n.pos), n.op)
}

func (c *Front) head(l ast.List) string {
	if len(l.Items) == 0 {
		return ""
	}

	w, _ := c.word(l.Items[0])

	return w
}

func (c *Front) word(x ast.Node) (string, bool) {
	w, ok := x.(ast.Word)
	if !ok {
		return "", false
	}

	return c.text(w.Base), true
}

func (c *Front) text(b ast.Base) string {
	return string(c.st.Text(b.Pos, b.End))
}

func (c *Front) base(x ast.Node) ast.Base {
	switch x := x.(type) {
	case ast.Word:
		return x.Base
	case ast.Int:
		return x.Base
	case ast.Attr:
		return x.Base
	case ast.List:
		return x.Base
	case *ast.File:
		return x.Base
	}

	return ast.Base{}
}

func (c *Front) pos(x ast.Node) int { return c.base(x).Pos }
