package parse

import (
	"context"

	"tlog.app/go/errors"

	"github.com/slowlang/lower/compiler/ast"
)

type (
	Skipper interface {
		Skip(b []byte, st int) int
	}

	Spaces uint64

	// Comments skips spaces and line comments started by Start.
	Comments struct {
		Spaces Spaces
		Start  byte
	}

	Spacer struct {
		Spaces Skipper
		Of     Parser
	}
)

var (
	SpaceAll = NewSpaces(' ', '\t', '\r', '\n')

	Blank = Comments{Spaces: SpaceAll, Start: ';'}
)

func NewSpaces(skip ...byte) (ss Spaces) {
	for _, q := range skip {
		if q >= 64 {
			panic("too high char code")
		}

		ss |= 1 << q
	}

	return
}

func (s Spaces) Skip(b []byte, st int) (i int) {
	i = st

	for i < len(b) && b[i] < 64 && s&(1<<b[i]) != 0 {
		i++
	}

	return
}

func (s Comments) Skip(b []byte, st int) (i int) {
	i = s.Spaces.Skip(b, st)

	for i < len(b) && b[i] == s.Start {
		for i < len(b) && b[i] != '\n' {
			i++
		}

		i = s.Spaces.Skip(b, i)
	}

	return i
}

func Spaced(p Parser, ss Skipper) Spacer {
	return Spacer{
		Spaces: ss,
		Of:     p,
	}
}

func (p Spacer) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	vst := p.Spaces.Skip(b, st)

	x, i, err = p.Of.Parse(ctx, b, vst)
	if err != nil {
		if i == vst {
			i = st
		}

		err = errors.Wrap(err, "%T", p.Of)
	}

	return
}
