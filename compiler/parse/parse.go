package parse

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"reflect"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/lower/compiler/ast"
)

type (
	State struct {
		b []byte // all files concatenated

		Grammar Parser

		files []file
	}

	file struct {
		base int
		size int
		name string
	}

	Parser interface {
		Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error)
	}

	TypeExpectedError struct {
		T interface{}
	}

	PartialReadError struct {
		End int
	}
)

func ParseFile(ctx context.Context, name string) (*State, ast.Node, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, nil, errors.Wrap(err, "read file")
	}

	s := New()
	s.AddFile(name, data)

	x, err := s.Parse(ctx)

	return s, x, err
}

func Parse(ctx context.Context, text []byte) (*State, ast.Node, error) {
	s := New()

	s.AddFile("", text)

	x, err := s.Parse(ctx)

	return s, x, err
}

func New() *State {
	return &State{
		Grammar: File{},
	}
}

func (s *State) Parse(ctx context.Context) (x ast.Node, err error) {
	x, i, err := s.Grammar.Parse(ctx, s.b, 0)
	if err != nil {
		return nil, errors.Wrap(err, "at %v", s.Pos(i))
	}

	i = Blank.Skip(s.b, i)

	if i != len(s.b) {
		return x, errors.Wrap(PartialReadError{End: i}, "at %v", s.Pos(i))
	}

	tlog.SpanFromContext(ctx).V("parse").Printw("parsed", "size", len(s.b), "files", len(s.files))

	return x, nil
}

func (s *State) AddFile(name string, text []byte) {
	f := file{
		name: name,
		base: len(s.b),
		size: len(text),
	}

	s.b = append(s.b, text...)

	s.files = append(s.files, f)
}

func (s *State) Text(pos, end int) []byte {
	return s.b[pos:end]
}

// Pos formats the position as file:line:col.
func (s *State) Pos(pos int) string {
	for _, f := range s.files {
		if pos < f.base || pos > f.base+f.size {
			continue
		}

		text := s.b[f.base:pos]
		line := bytes.Count(text, []byte{'\n'}) + 1
		col := pos - f.base - bytes.LastIndexByte(text, '\n')

		return fmt.Sprintf("%s:%d:%d", f.name, line, col)
	}

	return fmt.Sprintf("pos %d", pos)
}

func NewTypeExpectedError(t interface{}) TypeExpectedError {
	return TypeExpectedError{
		T: t,
	}
}

func (e TypeExpectedError) Error() string {
	return fmt.Sprintf("%v expected", reflect.TypeOf(e.T))
}

func (e PartialReadError) Error() string {
	return "partial read"
}
