package interp

import (
	"fmt"
	"strconv"

	"i4.energy/across/atcmd/at"
)

const (
	helpIndent  = "    "
	helpArrow   = "        -> "
	helpSep     = " : "
	helpNothing = helpIndent + "None"
)

// Print writes text to the link. It does nothing in quiet mode.
func (it *Interpreter) Print(text string) error {
	if it.quiet || text == "" {
		return nil
	}
	if err := it.link.Send([]byte(text)); err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return nil
}

// PrintLine writes text followed by the reply terminator.
func (it *Interpreter) PrintLine(text string) error {
	if err := it.Print(text); err != nil {
		return err
	}
	return it.Print(at.CRLF)
}

// SendReply prints a data line for cmd, or for the command being dispatched
// when cmd is nil. The line is prefixed with "<marker><syntax>:" when a
// command is known.
func (it *Interpreter) SendReply(cmd *Command, text string) error {
	if text == "" {
		return ErrNullParameter
	}
	if cmd == nil {
		cmd = it.current
	}
	if cmd != nil {
		if err := it.Print(cmd.String() + ":"); err != nil {
			return err
		}
	}
	return it.PrintLine(text)
}

// printStatus prints the final status line of a processed line.
func (it *Interpreter) printStatus(status at.Status, code int32) error {
	if !it.verbose {
		return it.PrintLine(strconv.Itoa(int(status)))
	}
	if status == at.Success {
		return it.PrintLine(at.OK)
	}
	return it.PrintLine(at.ERROR + it.statusText(status, code))
}

func (it *Interpreter) statusText(status at.Status, code int32) string {
	switch {
	case status.Internal():
		return status.Name()
	case status == at.StatusCoreError:
		if it.current != nil && it.current.ErrorText != nil {
			return status.Name() + ":" + it.current.ErrorText(code)
		}
		return fmt.Sprintf("%s:0x%02X", status.Name(), uint32(code))
	case status.External():
		return status.Name() + ":" + strconv.Itoa(int(code))
	default:
		return "UNKNOWN:" + strconv.Itoa(int(status))
	}
}

// printHelpAll prints the help of every category in a fixed order.
func (it *Interpreter) printHelpAll() error {
	sections := []struct {
		title    string
		category at.Category
	}{
		{"Basic commands", at.Basic},
		{"Extended commands", at.Extended},
		{"Debug commands", at.Debug},
	}
	for _, s := range sections {
		if err := it.PrintLine(s.title); err != nil {
			return err
		}
		if err := it.printHelp(s.category); err != nil {
			return err
		}
	}
	return nil
}

// printHelp prints one entry per registered command of category, followed
// by the addressable form of every supported invocation mode.
func (it *Interpreter) printHelp(category at.Category) error {
	if !category.Valid() {
		return ErrInvalidCategory
	}
	if it.registry.count(category) == 0 {
		return it.PrintLine(helpNothing)
	}
	for _, cmd := range it.registry.commands(category) {
		if err := it.PrintLine(helpIndent + cmd.Syntax + helpSep + cmd.Help); err != nil {
			return err
		}
		form := helpArrow + at.Header + cmd.String()
		if cmd.Execute != nil {
			if err := it.PrintLine(form + helpSep + cmd.ExecuteHelp); err != nil {
				return err
			}
		}
		if cmd.Write != nil {
			write := form
			if category != at.Basic {
				write += string(at.MarkerWrite)
			}
			if err := it.PrintLine(write + cmd.WriteArguments + helpSep + cmd.WriteHelp); err != nil {
				return err
			}
		}
		if cmd.Read != nil {
			if err := it.PrintLine(form + string(at.MarkerRead) + helpSep + cmd.ReadHelp); err != nil {
				return err
			}
		}
	}
	return nil
}

var _ Replier = (*Interpreter)(nil)
