package interp

import (
	"strings"

	"i4.energy/across/atcmd/at"
)

// registry is a fixed-capacity table of command references. Freed slots are
// reused by the next registration.
//
// It is written by Register and Unregister and read by the dispatcher and
// the help printer. Registration is expected during initialization and
// teardown only, from the same goroutine that calls Process; there is no
// locking.
type registry struct {
	slots  []*Command
	counts [at.NumCategories]int
}

func newRegistry(capacity int) registry {
	return registry{slots: make([]*Command, capacity)}
}

func (r *registry) register(cmd *Command) error {
	if cmd == nil || cmd.Syntax == "" {
		return ErrNullParameter
	}
	if cmd.Write != nil && cmd.WriteArguments == "" {
		return ErrWriteArgumentsMissing
	}
	if !cmd.Category.Valid() {
		return ErrInvalidCategory
	}
	if r.contains(cmd) {
		return ErrAlreadyRegistered
	}
	for i, slot := range r.slots {
		if slot == nil {
			r.slots[i] = cmd
			r.counts[cmd.Category]++
			return nil
		}
	}
	return ErrRegistryFull
}

func (r *registry) unregister(cmd *Command) error {
	if cmd == nil {
		return ErrNullParameter
	}
	for i, slot := range r.slots {
		if slot == cmd {
			r.slots[i] = nil
			r.counts[cmd.Category]--
			return nil
		}
	}
	return ErrNotRegistered
}

func (r *registry) contains(cmd *Command) bool {
	for _, slot := range r.slots {
		if slot == cmd {
			return true
		}
	}
	return false
}

// lookup returns the first command of category whose syntax prefixes input.
func (r *registry) lookup(category at.Category, input string) *Command {
	for _, slot := range r.slots {
		if slot == nil || slot.Category != category {
			continue
		}
		if strings.HasPrefix(input, slot.Syntax) {
			return slot
		}
	}
	return nil
}

func (r *registry) count(category at.Category) int {
	if !category.Valid() {
		return 0
	}
	return r.counts[category]
}

func (r *registry) size() int {
	n := 0
	for _, c := range r.counts {
		n += c
	}
	return n
}

// commands returns the registered commands of category in slot order.
func (r *registry) commands(category at.Category) []*Command {
	var out []*Command
	for _, slot := range r.slots {
		if slot != nil && slot.Category == category {
			out = append(out, slot)
		}
	}
	return out
}
