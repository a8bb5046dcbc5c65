package scanner

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// LineKind classifies a transaction log line.
type LineKind uint8

const (
	LineOther LineKind = iota
	LineInvoke
	LineSuccess
	LineFailed
	LineLog
	LineData
	LineConsumed
	LineReturn
)

func (k LineKind) String() string {
	switch k {
	case LineInvoke:
		return "invoke"
	case LineSuccess:
		return "success"
	case LineFailed:
		return "failed"
	case LineLog:
		return "log"
	case LineData:
		return "data"
	case LineConsumed:
		return "consumed"
	case LineReturn:
		return "return"
	default:
		return "other"
	}
}

const (
	programPrefix = "Program "
	logPrefix     = "Program log: "
	dataPrefix    = "Program data: "
	returnPrefix  = "Program return: "
)

// Line is a parsed log line.
type Line struct {
	Kind LineKind
	// Program is set for invoke, success, failed, consumed and return lines.
	Program string
	// Depth is the invocation depth of an invoke line.
	Depth int
	// Text is the rest of the line: the message of log lines, the base64
	// payload of data and return lines, the reason of failed lines.
	Text string
}

// ParseLine classifies one log line. Lines that do not follow the runtime's
// grammar are LineOther.
func ParseLine(s string) Line {
	switch {
	case strings.HasPrefix(s, logPrefix):
		return Line{Kind: LineLog, Text: s[len(logPrefix):]}
	case strings.HasPrefix(s, dataPrefix):
		return Line{Kind: LineData, Text: s[len(dataPrefix):]}
	case strings.HasPrefix(s, returnPrefix):
		program, rest, _ := strings.Cut(s[len(returnPrefix):], " ")
		return Line{Kind: LineReturn, Program: program, Text: rest}
	case !strings.HasPrefix(s, programPrefix):
		return Line{Kind: LineOther, Text: s}
	}

	program, rest, ok := strings.Cut(s[len(programPrefix):], " ")
	if !ok || program == "" {
		return Line{Kind: LineOther, Text: s}
	}

	switch {
	case strings.HasPrefix(rest, "invoke [") && strings.HasSuffix(rest, "]"):
		depth, err := strconv.Atoi(rest[len("invoke [") : len(rest)-1])
		if err != nil || depth < 1 {
			return Line{Kind: LineOther, Text: s}
		}
		return Line{Kind: LineInvoke, Program: program, Depth: depth}
	case rest == "success":
		return Line{Kind: LineSuccess, Program: program}
	case strings.HasPrefix(rest, "failed"):
		reason := strings.TrimPrefix(strings.TrimPrefix(rest, "failed"), ": ")
		return Line{Kind: LineFailed, Program: program, Text: reason}
	case strings.HasPrefix(rest, "consumed "):
		return Line{Kind: LineConsumed, Program: program, Text: rest[len("consumed "):]}
	}
	return Line{Kind: LineOther, Text: s}
}

// Payload decodes the base64 payload of a data line. The runtime separates
// multiple fields with spaces; they are concatenated.
func (l Line) Payload() ([]byte, error) {
	if l.Kind != LineData {
		return nil, fmt.Errorf("%s line carries no payload", l.Kind)
	}
	var payload []byte
	for _, field := range strings.Fields(l.Text) {
		b, err := base64.StdEncoding.DecodeString(field)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 payload: %w", err)
		}
		payload = append(payload, b...)
	}
	return payload, nil
}

// invokeStack tracks which program is currently executing while walking the
// log lines of a transaction.
type invokeStack []string

func (s *invokeStack) apply(l Line) {
	switch l.Kind {
	case LineInvoke:
		*s = append(*s, l.Program)
	case LineSuccess, LineFailed:
		if n := len(*s); n > 0 {
			*s = (*s)[:n-1]
		}
	}
}

func (s invokeStack) current() string {
	if len(s) == 0 {
		return ""
	}
	return s[len(s)-1]
}

// DataLine is a data line emitted by the watched program.
type DataLine struct {
	// Index is the position of the line in the transaction's log.
	Index int
	Line  Line
}

// ProgramData returns the data lines emitted while program was the innermost
// running program. Data lines of other programs, including programs invoked
// through cross-program calls, are dropped.
func ProgramData(program string, logs []string) []DataLine {
	var stack invokeStack
	var lines []DataLine
	for i, raw := range logs {
		l := ParseLine(raw)
		if l.Kind == LineData && stack.current() == program {
			lines = append(lines, DataLine{Index: i, Line: l})
		}
		stack.apply(l)
	}
	return lines
}
