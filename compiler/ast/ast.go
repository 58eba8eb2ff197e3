package ast

type (
	Node interface {
	}

	Base struct {
		Pos int
		End int
	}

	// Word is an operator, type, name or flag.
	Word struct {
		Base `tlog:",embed"`
	}

	Int struct {
		Base `tlog:",embed"`
	}

	// Attr is a key=value pair.
	Attr struct {
		Base `tlog:",embed"`

		Key   Word
		Value Node
	}

	// List is a parenthesized sequence.
	List struct {
		Base `tlog:",embed"`

		Items []Node
	}

	File struct {
		Base `tlog:",embed"`

		Items []Node
	}
)

func (b Base) Span() Base { return b }
