// Package parser turns raw estimate interchange bytes into a format-specific
// intermediate form: a node tree for the XML (BMS) format, a record sequence
// for the pipe-delimited (EMS) format.
package parser

import (
	"bytes"
	"fmt"
	"unicode"
)

// Format identifies the sniffed interchange format.
type Format string

const (
	FormatBMS Format = "bms"
	FormatEMS Format = "ems"
)

// ParseError indicates structurally malformed input. Only the XML format can
// produce one; EMS defects surface later as validation issues.
type ParseError struct {
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parser: malformed %s input: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Result is the tagged union of the two intermediate forms. Exactly one of
// Tree and Records is set, according to Format.
type Result struct {
	Format  Format
	Tree    *Node
	Records []Record
}

// Sniff decides the format from the first non-whitespace byte.
func Sniff(content []byte) Format {
	trimmed := bytes.TrimLeftFunc(content, unicode.IsSpace)
	if len(trimmed) > 0 && trimmed[0] == '<' {
		return FormatBMS
	}
	return FormatEMS
}

// Parse sniffs and parses raw file content. A *ParseError is returned only
// for malformed XML; EMS input always yields a Result.
func Parse(content []byte) (*Result, error) {
	switch Sniff(content) {
	case FormatBMS:
		tree, err := ParseBMS(content)
		if err != nil {
			return nil, &ParseError{Format: FormatBMS, Err: err}
		}
		return &Result{Format: FormatBMS, Tree: tree}, nil
	default:
		return &Result{Format: FormatEMS, Records: ParseEMS(content)}, nil
	}
}
