package rationalize

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/lower/compiler/ir"
	"github.com/slowlang/lower/compiler/target"
)

type (
	Config struct {
		Target *target.Target

		// SIMD enables vector normalization.
		SIMD bool

		// Check validates each block after it's rewritten.
		Check bool
	}

	rationalizer struct {
		Config

		tr tlog.Span

		f *ir.Func
		b *ir.Block
	}
)

// Run brings the function from tree form into linear form.
// A broken IR contract aborts the function and is returned as *ir.Fatal.
func Run(ctx context.Context, f *ir.Func, cfg Config) (err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "rationalize", "func", f.Name, "target", cfg.Target.Name, "native", cfg.Target.Native(), "simd", cfg.SIMD)
	defer tr.Finish("err", &err)

	defer func() {
		p := recover()
		if p == nil {
			return
		}

		fatal, ok := p.(*ir.Fatal)
		if !ok {
			panic(p)
		}

		err = errors.Wrap(fatal, "func %v", f.Name)
	}()

	ir.Assert(!f.IsLIR, "func %v is already in linear form", f.Name)

	z := &rationalizer{
		Config: cfg,
		tr:     tr,
		f:      f,
	}

	z.sanityCheck()

	for _, b := range f.Blocks {
		z.block(b)
	}

	f.IsLIR = true

	return nil
}

func (z *rationalizer) block(b *ir.Block) {
	f := z.f
	z.b = b

	if len(b.Stmts) == 0 {
		b.MakeLIR(ir.Nil, ir.Nil)
		return
	}

	// Intrinsics are turned into calls while still in tree form,
	// argument binding and sequencing work on trees.
	for _, s := range b.Stmts {
		f.WalkPost(&s.Root, func(e ir.Edge, st *ir.Stack) ir.WalkResult {
			x := e.Get(f)

			switch {
			case f.Op(x) == ir.OpIntrinsic && z.Target.IsImplementedByUserCall(f.Nodes[x].Intrinsic):
				z.rewriteIntrinsicAsCall(s, e, st)
			case f.IsLocal(x):
				f.Nodes[x].Flags &^= ir.FlagVarUseDef
			}

			return ir.WalkContinue
		})
	}

	b.LinkStmts()

	r := b.Range()
	r.Verify = z.Check

	for _, s := range b.Stmts {
		if s.HasILOffset {
			il := f.NewILOffset(s.ILOffset)
			r.InsertBefore(s.List.First, il)
		}

		f.WalkPost(&s.Root, z.rewriteNode)
	}

	if z.tr.If("dump_lir") {
		r.Nodes(func(x ir.Expr) bool {
			n := f.N(x)
			z.tr.Printw("lir", "block", b.Num, "node", x, "op", n.Op, "type", n.Type, "flags", n.Flags, "ops", n.Ops)

			return true
		})
	}

	if z.Check {
		if err := r.Check(); err != nil {
			ir.Fatalf("block %d: %v", b.Num, err)
		}
	}
}

// sanityCheck validates the tree form input.
func (z *rationalizer) sanityCheck() {
	f := z.f

	for _, b := range f.Blocks {
		for _, s := range b.Stmts {
			s.List.Nodes(func(x ir.Expr) bool {
				n := &f.Nodes[x]

				switch n.Op {
				case ir.OpQmark:
					ir.Fatalf("qmark %d must be expanded before linear form", x)
				case ir.OpAsg:
					loc, val := n.Ops[0], n.Ops[1]

					if f.Op(loc) == ir.OpLclVar {
						ir.Assert(f.Nodes[loc].Flags&ir.FlagVarDef != 0, "assigned local %d has no vardef", loc)
					} else if f.Op(val) == ir.OpLclVar {
						ir.Assert(f.Nodes[val].Flags&ir.FlagVarDef == 0, "local read %d has vardef", val)
					}
				}

				return true
			})
		}
	}
}
