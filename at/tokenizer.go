package at

import (
	"bufio"
	"bytes"
	"strings"
)

// Splitter is used for tokenizing interpreter replies. It uses the
// signature of bufio.SplitFunc so it can be directly used with bufio.Scanner.
//
// It splits the input by CRLF line endings. Echoed command lines are
// terminated the same way, so they come out as ordinary tokens.
//
// The atEOF parameter indicates whether any more data will be available.
// When true, any remaining data is returned as the final token.
func Splitter(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.Index(data, []byte(CRLF)); i >= 0 {
		return i + len(CRLF), data[0:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

var _ bufio.SplitFunc = Splitter

// Classify identifies the nature of an interpreter reply line.
//
// In non-verbose mode the final status is a bare decimal number, so a reply
// line made only of digits is taken as final.
func Classify(line string) ResponseType {
	switch {
	case line == OK, strings.HasPrefix(line, ERROR):
		return TypeFinal
	case isDecimal(line):
		return TypeFinal
	default:
		return TypeData
	}
}

// ParseFinal decodes a final reply line into its status and the detail
// printed after the status name, if any.
func ParseFinal(line string) (Status, string, bool) {
	if line == OK {
		return Success, "", true
	}
	if isDecimal(line) {
		s, ok := ParseStatus(line)
		return s, "", ok
	}
	rest, found := strings.CutPrefix(line, ERROR)
	if !found {
		return 0, "", false
	}
	name, detail, _ := strings.Cut(rest, ":")
	s, ok := ParseStatus(name)
	return s, detail, ok
}

func isDecimal(line string) bool {
	if line == "" {
		return false
	}
	for i := 0; i < len(line); i++ {
		if line[i] < '0' || line[i] > '9' {
			return false
		}
	}
	return true
}
