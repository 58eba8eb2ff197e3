package ir

import (
	"fmt"

	"tlog.app/go/loc"
)

// Fatal is the panic value of a violated IR contract.
// Compilation of the current function can not continue after it.
type Fatal struct {
	Msg string
	PC  loc.PC
}

func Fatalf(format string, args ...any) {
	panic(&Fatal{
		Msg: fmt.Sprintf(format, args...),
		PC:  loc.Caller(1),
	})
}

func Assert(ok bool, format string, args ...any) {
	if ok {
		return
	}

	panic(&Fatal{
		Msg: fmt.Sprintf(format, args...),
		PC:  loc.Caller(1),
	})
}

func (e *Fatal) Error() string {
	return fmt.Sprintf("%v: %s", e.PC, e.Msg)
}
