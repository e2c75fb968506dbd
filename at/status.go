package at

import (
	"strconv"
	"strings"
)

// Status is the result code of a processed line. The numeric values are
// what the interpreter prints in non-verbose mode and must stay stable.
type Status int

const (
	Success Status = iota

	// Internal command errors, printed on the terminal.
	StatusCommandParsing
	StatusCommandNotFound
	StatusMarkerNotDefined
	StatusExecutionNotDefined
	StatusWriteNotDefined
	StatusReadNotDefined

	// External command errors, reported by command handlers. They carry an
	// auxiliary code.
	StatusBadParameterNumber
	StatusBadParameterParsing
	StatusBadParameterValue
	StatusCoreError

	// Driver errors, returned to the calling code and never printed.
	StatusNullParameter
	StatusWriteArgumentsMissing
	StatusInvalidCategory
	StatusAlreadyRegistered
	StatusRegistryFull
	StatusNotRegistered
	StatusTxBufferSize
	StatusTransport

	statusLast
)

var statusNames = [...]string{
	Success:                     "SUCCESS",
	StatusCommandParsing:        "COMMAND_PARSING",
	StatusCommandNotFound:       "COMMAND_NOT_FOUND",
	StatusMarkerNotDefined:      "COMMAND_MARKER_NOT_DEFINED",
	StatusExecutionNotDefined:   "COMMAND_EXECUTION_NOT_DEFINED",
	StatusWriteNotDefined:       "COMMAND_WRITE_NOT_DEFINED",
	StatusReadNotDefined:        "COMMAND_READ_NOT_DEFINED",
	StatusBadParameterNumber:    "COMMAND_BAD_PARAMETER_NUMBER",
	StatusBadParameterParsing:   "COMMAND_BAD_PARAMETER_PARSING",
	StatusBadParameterValue:     "COMMAND_BAD_PARAMETER_VALUE",
	StatusCoreError:             "COMMAND_CORE_ERROR",
	StatusNullParameter:         "NULL_PARAMETER",
	StatusWriteArgumentsMissing: "WRITE_ARGUMENTS_MISSING",
	StatusInvalidCategory:       "INVALID_CATEGORY",
	StatusAlreadyRegistered:     "ALREADY_REGISTERED",
	StatusRegistryFull:          "REGISTRY_FULL",
	StatusNotRegistered:         "NOT_REGISTERED",
	StatusTxBufferSize:          "TX_BUFFER_SIZE",
	StatusTransport:             "TRANSPORT",
}

// Name returns the symbolic name printed after "ERROR:" in verbose mode.
func (s Status) Name() string {
	if s < 0 || s >= statusLast {
		return "UNKNOWN"
	}
	return statusNames[s]
}

// Error implements the error interface so a Status can be returned and
// matched with errors.Is.
func (s Status) Error() string {
	return strings.ReplaceAll(strings.ToLower(s.Name()), "_", " ")
}

func (s Status) String() string {
	return s.Name()
}

// Internal reports whether s is a framing or dispatch error raised by the
// interpreter itself.
func (s Status) Internal() bool {
	return s >= StatusCommandParsing && s <= StatusReadNotDefined
}

// External reports whether s is an error reported by a command handler.
func (s Status) External() bool {
	return s >= StatusBadParameterNumber && s <= StatusCoreError
}

// HasCode reports whether s is printed with an auxiliary code.
func (s Status) HasCode() bool {
	return s.External()
}

// ParseStatus maps a symbolic name or a decimal code back to a Status.
func ParseStatus(text string) (Status, bool) {
	if n, err := strconv.Atoi(text); err == nil {
		if n < 0 || Status(n) >= statusLast {
			return 0, false
		}
		return Status(n), true
	}
	for i, name := range statusNames {
		if name == text {
			return Status(i), true
		}
	}
	return 0, false
}
