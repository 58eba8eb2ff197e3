package parse

import (
	"bytes"
	"context"

	"tlog.app/go/errors"

	"github.com/slowlang/lower/compiler/ast"
)

type (
	Const []byte

	// Word is an identifier which may contain dots: lcl_var.int32.
	Word struct{}
)

func (p Const) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	if bytes.HasPrefix(b[st:], p) {
		return Const(b[st : st+len(p)]), st + len(p), nil
	}

	return nil, st, errors.New("%q expected", []byte(p))
}

func (p Word) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	if st == len(b) {
		return nil, st, errors.New("Word expected")
	}

	i = st

	c := b[i]

	switch {
	case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_':
		i++
	default:
		return nil, st, errors.New("Word expected")
	}

	for i < len(b) {
		c := b[i]

		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '.') {
			break
		}

		i++
	}

	return ast.Word{
		Base: ast.Base{
			Pos: st,
			End: i,
		},
	}, i, nil
}
