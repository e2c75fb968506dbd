package interp

import (
	"errors"
	"fmt"
	"strconv"

	"i4.energy/across/atcmd/at"
)

// ExecuteFunc handles a bare invocation such as "AT$RST".
type ExecuteFunc func(r Replier) error

// ReadFunc handles a read invocation such as "AT$VER?".
type ReadFunc func(r Replier) error

// WriteFunc handles a write invocation such as "AT$ID=node,,3".
type WriteFunc func(r Replier, args Args) error

// ErrorTextFunc renders a core error code reported by a handler.
type ErrorTextFunc func(code int32) string

// Replier is handed to command handlers so they can stream data lines back
// before their final status is printed.
type Replier interface {
	// SendReply prints text prefixed with the marker and syntax of cmd, or of
	// the command being dispatched when cmd is nil.
	SendReply(cmd *Command, text string) error
	// Print writes text verbatim.
	Print(text string) error
	// PrintLine writes text followed by the reply terminator.
	PrintLine(text string) error
}

// Command describes one AT command. A Command is owned by whoever defines
// it; the registry keeps a reference and uses the pointer as its identity,
// so a registered Command must not be modified.
//
// A nil handler means the matching invocation mode is not supported.
type Command struct {
	Syntax   string
	Category at.Category
	Help     string

	Execute     ExecuteFunc
	ExecuteHelp string

	Read     ReadFunc
	ReadHelp string

	Write          WriteFunc
	WriteArguments string
	WriteHelp      string

	ErrorText ErrorTextFunc
}

func (c *Command) String() string {
	return c.Category.Marker() + c.Syntax
}

// CommandError is the error a handler returns to report a bad parameter or
// a core failure. Code is printed after the status name in verbose mode.
type CommandError struct {
	Status at.Status
	Code   int32
	Err    error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%d): %v", e.Status.Error(), e.Code, e.Err)
	}
	return fmt.Sprintf("%s (%d)", e.Status.Error(), e.Code)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Is matches the at.Status carried by e.
func (e *CommandError) Is(target error) bool {
	s, ok := target.(at.Status)
	return ok && s == e.Status
}

// ParamNumberError reports that the command expects a different number of
// parameters.
func ParamNumberError(expected int) error {
	return &CommandError{Status: at.StatusBadParameterNumber, Code: int32(expected)}
}

// ParamParsingError reports that the parameter at position could not be
// parsed.
func ParamParsingError(position int) error {
	return &CommandError{Status: at.StatusBadParameterParsing, Code: int32(position)}
}

// ParamValueError reports that the parameter at position is out of range.
func ParamValueError(position int) error {
	return &CommandError{Status: at.StatusBadParameterValue, Code: int32(position)}
}

// CoreError reports a command specific failure. The command ErrorText
// function, if any, renders code in verbose mode.
func CoreError(code int32) error {
	return &CommandError{Status: at.StatusCoreError, Code: code}
}

// handlerError normalizes what a handler returned into a *CommandError.
func handlerError(err error) error {
	if err == nil {
		return nil
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr
	}
	var s at.Status
	if errors.As(err, &s) && s.External() {
		return &CommandError{Status: s}
	}
	return &CommandError{Status: at.StatusCoreError, Err: err}
}

// Arg is one write argument. An omitted argument (two adjacent separators)
// is distinct from a present but empty one.
type Arg struct {
	value   string
	present bool
}

// Value returns a present argument holding v.
func Value(v string) Arg {
	return Arg{value: v, present: true}
}

// Omitted returns an omitted argument.
func Omitted() Arg {
	return Arg{}
}

// Omitted reports whether the argument was left out.
func (a Arg) Omitted() bool {
	return !a.present
}

func (a Arg) String() string {
	return a.value
}

// Args holds the arguments of a write invocation in order.
type Args []Arg

// Expect returns a parameter number error unless there are exactly n
// arguments.
func (a Args) Expect(n int) error {
	if len(a) != n {
		return ParamNumberError(n)
	}
	return nil
}

// Omitted reports whether argument i is missing or was left out.
func (a Args) Omitted(i int) bool {
	return i >= len(a) || a[i].Omitted()
}

// String returns argument i, or the empty string if it is missing.
func (a Args) String(i int) string {
	if i >= len(a) {
		return ""
	}
	return a[i].value
}

// Int parses argument i as a base 10 integer.
func (a Args) Int(i int) (int64, error) {
	if a.Omitted(i) {
		return 0, ParamParsingError(i)
	}
	n, err := strconv.ParseInt(a[i].value, 10, 32)
	if err != nil {
		return 0, ParamParsingError(i)
	}
	return n, nil
}

// Bit parses argument i as 0 or 1.
func (a Args) Bit(i int) (bool, error) {
	n, err := a.Int(i)
	if err != nil {
		return false, err
	}
	if n != 0 && n != 1 {
		return false, ParamValueError(i)
	}
	return n == 1, nil
}
