package parse

import (
	"context"

	"tlog.app/go/errors"

	"github.com/slowlang/lower/compiler/ast"
)

type (
	// List is a parenthesized sequence of items.
	List struct{}

	// Attr is key=value.
	Attr struct{}

	// Item is a List, an Attr, an Int or a Word.
	Item struct{}

	// File is a sequence of lists.
	File struct{}
)

func (List) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	p := Context{
		Pre:  Const("("),
		Of:   Many{Of: Spaced(Item{}, Blank)},
		Post: Spaced(Const(")"), Blank),
	}

	x, i, err = p.Parse(ctx, b, st)
	if err != nil {
		return nil, i, err
	}

	items, _ := x.([]ast.Node)

	return ast.List{
		Base: ast.Base{
			Pos: st,
			End: i,
		},
		Items: items,
	}, i, nil
}

func (Attr) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	k, i, err := Word{}.Parse(ctx, b, st)
	if err != nil {
		return nil, st, err
	}

	if i == len(b) || b[i] != '=' {
		return nil, st, errors.New("Attr expected")
	}

	v, i, err := AnyOf{Int{}, Word{}}.Parse(ctx, b, i+1)
	if err != nil {
		return nil, i, errors.Wrap(err, "value of %s", b[st:i])
	}

	return ast.Attr{
		Base: ast.Base{
			Pos: st,
			End: i,
		},
		Key:   k.(ast.Word),
		Value: v,
	}, i, nil
}

func (Item) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	return AnyOf{List{}, Attr{}, Int{}, Word{}}.Parse(ctx, b, st)
}

func (File) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	x, i, err = Many{Of: Spaced(List{}, Blank)}.Parse(ctx, b, st)
	if err != nil {
		return nil, i, err
	}

	items, _ := x.([]ast.Node)

	return &ast.File{
		Base: ast.Base{
			Pos: st,
			End: i,
		},
		Items: items,
	}, i, nil
}
