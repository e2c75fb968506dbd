package interp

import "i4.energy/across/atcmd/at"

var builtinSyntaxes = [...]string{"E", "V", "Q"}

// newBuiltins returns the echo, verbose and quiet commands bound to it.
func (it *Interpreter) newBuiltins() []*Command {
	return []*Command{
		modeCommand(builtinSyntaxes[0], "Interface echo control", "echo", &it.echo),
		modeCommand(builtinSyntaxes[1], "Interface verbosity level", "verbose mode", &it.verbose),
		modeCommand(builtinSyntaxes[2], "Interface quiet mode control", "quiet mode", &it.quiet),
	}
}

// modeCommand builds a Basic command toggling flag: a bare invocation
// clears it, a write sets it from a single 0/1 argument.
func modeCommand(syntax, help, what string, flag *bool) *Command {
	return &Command{
		Syntax:      syntax,
		Category:    at.Basic,
		Help:        help,
		ExecuteHelp: "Disable " + what,
		Execute: func(Replier) error {
			*flag = false
			return nil
		},
		WriteArguments: "<enable>",
		WriteHelp:      "Enable (1) or disable (0) " + what,
		Write: func(_ Replier, args Args) error {
			if err := args.Expect(1); err != nil {
				return err
			}
			enable, err := args.Bit(0)
			if err != nil {
				return err
			}
			*flag = enable
			return nil
		},
	}
}
