package parse

import (
	"context"
	"fmt"
	"strings"

	"tlog.app/go/errors"

	"github.com/slowlang/lower/compiler/ast"
)

type (
	Context struct {
		Pre  Parser
		Of   Parser
		Post Parser
	}

	AnyOf []Parser

	// Many repeats Of until it stops making progress.
	Many struct {
		Of Parser
	}
)

func (p Context) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	i = st

	if p.Pre != nil {
		_, i, err = p.Pre.Parse(ctx, b, i)
		if err != nil {
			return nil, i, errors.Wrap(err, "pre")
		}
	}

	vst := i

	x, i, err = p.Of.Parse(ctx, b, i)
	if err != nil {
		if i == vst {
			i = st
		}

		return nil, i, errors.Wrap(err, "of")
	}

	if p.Post != nil {
		_, i, err = p.Post.Parse(ctx, b, i)
		if err != nil {
			return nil, i, errors.Wrap(err, "post")
		}
	}

	return x, i, nil
}

func (p AnyOf) Parse(ctx context.Context, b []byte, st int) (_ ast.Node, i int, err error) {
	for _, r := range p {
		x, j, e := r.Parse(ctx, b, st)
		if e == nil {
			return x, j, nil
		}
		if j == st {
			continue
		}
		if err == nil {
			i = j
			err = errors.Wrap(e, "%T", r)
		}
	}

	if err != nil {
		return
	}

	return nil, st, errors.New("expected %v", joinHuman(p...))
}

func (p Many) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	i = st

	var res []ast.Node

	for {
		x, j, err := p.Of.Parse(ctx, b, i)
		if err != nil {
			if j == i {
				return res, i, nil
			}

			return nil, j, errors.Wrap(err, "item %d", len(res))
		}

		if j == i {
			return res, i, nil
		}

		res = append(res, x)
		i = j
	}
}

func joinHuman(l ...Parser) string {
	switch len(l) {
	case 0:
		return "<none>"
	case 1:
		return fmt.Sprintf("%T", l[0])
	}

	var b strings.Builder

	for i, r := range l {
		if i+1 == len(l) {
			b.WriteString(" or ")
		} else if i != 0 {
			b.WriteString(", ")
		}

		fmt.Fprintf(&b, "%T", r)
	}

	return b.String()
}
