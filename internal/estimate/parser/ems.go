package parser

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
)

// Record is one logical EMS line: the record type is the first field
// upper-cased, Fields holds every field including the type token. A record
// with a bad escape sequence keeps its best-effort fields and carries the
// defect in Err so the validator can report it instead of the parser failing.
type Record struct {
	LineNo int
	Type   string
	Fields []string
	Raw    string
	Err    error
}

// ErrDanglingEscape reports a line ending in an unescaped backslash.
var ErrDanglingEscape = errors.New("trailing unescaped escape character")

// ParseEMS tokenizes pipe-delimited content into records. It never fails:
// the EMS format has no structural markers, only semantic checks, so
// malformed lines become validation errors downstream.
func ParseEMS(content []byte) []Record {
	var records []Record
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		if strings.TrimSpace(raw) == "" {
			continue
		}
		fields, err := SplitFields(raw)
		rec := Record{LineNo: lineNo, Fields: fields, Raw: raw, Err: err}
		if len(fields) > 0 {
			rec.Type = strings.ToUpper(strings.TrimSpace(fields[0]))
		}
		records = append(records, rec)
	}
	return records
}

// SplitFields splits an EMS line on unescaped pipes. A backslash before a
// pipe yields a literal pipe; before any other byte it is kept verbatim.
// A trailing unescaped backslash is invalid.
func SplitFields(line string) ([]string, error) {
	var fields []string
	var cur strings.Builder
	escaped := false
	for _, r := range line {
		if escaped {
			if r != '|' {
				cur.WriteByte('\\')
			}
			cur.WriteRune(r)
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '|':
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	fields = append(fields, cur.String())
	if escaped {
		return fields, ErrDanglingEscape
	}
	return fields, nil
}
