package parse

import (
	"context"

	"tlog.app/go/errors"

	"github.com/slowlang/lower/compiler/ast"
)

type (
	Int struct{}
)

func (p Int) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	i = st

	if i < len(b) && b[i] == '-' {
		i++
	}

	hex := false

	if i+1 < len(b) && b[i] == '0' && (b[i+1] == 'x' || b[i+1] == 'X') {
		hex = true
		i += 2 // skip base prefix
	}

	dst := i

	for i < len(b) && (b[i] >= '0' && b[i] <= '9' || hex && (b[i]|0x20 >= 'a' && b[i]|0x20 <= 'f')) {
		i++
	}

	if i == dst {
		return nil, st, errors.New("Int expected")
	}

	if i < len(b) && (b[i] >= 'a' && b[i] <= 'z' || b[i] >= 'A' && b[i] <= 'Z' || b[i] == '_' || b[i] == '.') {
		return nil, st, errors.New("Int expected")
	}

	return ast.Int{
		Base: ast.Base{
			Pos: st,
			End: i,
		},
	}, i, nil
}
