package interp

import (
	"strings"

	"i4.energy/across/atcmd/at"
)

// dispatch finds the command addressed by input, selects the invocation
// mode from the marker that follows its syntax and calls the handler.
// input is the line with the header and category marker stripped.
func (it *Interpreter) dispatch(input string, category at.Category) error {
	it.current = it.registry.lookup(category, input)
	if it.current == nil {
		return at.StatusCommandNotFound
	}
	cmd := it.current

	rest := input[len(cmd.Syntax):]
	var marker byte = at.MarkerExecute
	if rest != "" {
		marker = rest[0]
	}

	switch {
	case marker == at.MarkerExecute:
		if cmd.Execute == nil {
			return at.StatusExecutionNotDefined
		}
		return handlerError(cmd.Execute(it))

	case marker == at.MarkerRead:
		if cmd.Read == nil {
			return at.StatusReadNotDefined
		}
		return handlerError(cmd.Read(it))

	case marker == at.MarkerWrite, category == at.Basic:
		if cmd.Write == nil {
			return at.StatusWriteNotDefined
		}
		// Basic commands take their arguments right after the syntax, the
		// write marker is optional for them.
		if marker == at.MarkerWrite {
			rest = rest[1:]
		}
		args, err := splitArgs(rest)
		if err != nil {
			return err
		}
		return handlerError(cmd.Write(it, args))

	default:
		return at.StatusMarkerNotDefined
	}
}

// splitArgs tokenizes write arguments on the separator. Every separator not
// preceded by a value stands for an omitted argument, so ",,3" yields two
// omitted arguments followed by "3". A single trailing separator after a
// value adds nothing.
func splitArgs(s string) (Args, error) {
	args := make(Args, 0, at.MaxArgs)
	push := func(a Arg) error {
		if len(args) == at.MaxArgs {
			return ParamNumberError(at.MaxArgs)
		}
		args = append(args, a)
		return nil
	}
	skip := func(i int) (int, error) {
		for i < len(s) && s[i] == at.Separator {
			if err := push(Omitted()); err != nil {
				return i, err
			}
			i++
		}
		return i, nil
	}

	i, err := skip(0)
	if err != nil {
		return nil, err
	}
	for i < len(s) {
		j := strings.IndexByte(s[i:], at.Separator)
		if j < 0 {
			if err := push(Value(s[i:])); err != nil {
				return nil, err
			}
			break
		}
		if err := push(Value(s[i : i+j])); err != nil {
			return nil, err
		}
		if i, err = skip(i + j + 1); err != nil {
			return nil, err
		}
	}
	return args, nil
}
