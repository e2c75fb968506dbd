package at

const (
	// Framing
	Header  = "AT"
	LineEnd = '\r'
	CRLF    = "\r\n"

	// Mode markers, placed right after the command syntax
	MarkerExecute = 0
	MarkerRead    = '?'
	MarkerWrite   = '='

	// Category markers, placed right after the header
	MarkerExtended = '$'
	MarkerDebug    = '!'

	Separator = ','

	// MaxArgs is the maximum number of write arguments a line may carry.
	MaxArgs = 10

	// Response Codes
	OK    = "OK"
	ERROR = "ERROR:"

	// Console commands
	CmdAt        = "AT"
	CmdHelp      = "AT?"
	CmdEchoOff   = "ATE=0"
	CmdVerboseOn = "ATV=1"
)

// Category partitions the command namespace. The category of a line is
// selected by the marker that follows the header.
type Category int

const (
	Basic Category = iota
	Extended
	Debug

	// NumCategories is the number of defined categories.
	NumCategories int = iota
)

// Valid reports whether c is one of the defined categories.
func (c Category) Valid() bool {
	return c >= Basic && int(c) < NumCategories
}

// Marker returns the marker addressing c, or the empty string for Basic.
func (c Category) Marker() string {
	switch c {
	case Extended:
		return string(MarkerExtended)
	case Debug:
		return string(MarkerDebug)
	default:
		return ""
	}
}

func (c Category) String() string {
	switch c {
	case Basic:
		return "basic"
	case Extended:
		return "extended"
	case Debug:
		return "debug"
	default:
		return "invalid"
	}
}

type ResponseType int

const (
	TypeFinal ResponseType = iota // OK, ERROR:..., numeric status
	TypeData                      // Echo, help text and command replies
)
