package qmakepro

import (
	"bytes"
	"strings"
)

// logicalLine is one statement after continuation joining.
type logicalLine struct {
	text   string
	number int
}

// logicalLines joins physical lines ending in a backslash with their
// successors and drops blank and comment lines.
func logicalLines(data []byte) []logicalLine {
	var (
		out     []logicalLine
		current strings.Builder
		start   int
	)
	flush := func() {
		text := strings.TrimSpace(current.String())
		current.Reset()
		if text == "" || strings.HasPrefix(text, "#") {
			return
		}
		out = append(out, logicalLine{text: text, number: start})
	}

	number := 0
	for raw := range bytes.Lines(data) {
		number++
		line := strings.TrimRight(string(raw), " \t\r\n")
		if current.Len() == 0 {
			start = number
		}
		if strings.HasSuffix(line, "\\") {
			current.WriteString(strings.TrimSpace(line[:len(line)-1]))
			current.WriteByte(' ')
			continue
		}
		current.WriteString(line)
		flush()
	}
	if current.Len() > 0 {
		flush()
	}
	return out
}

// splitBraces breaks a single-line block such as "win32 { LIBS += -luser32 }"
// into its header, body and closing brace. Other lines are returned as is.
func splitBraces(line string) []string {
	open := strings.Index(line, "{")
	end := strings.LastIndex(line, "}")
	if open < 0 || end < open || strings.TrimSpace(line[end+1:]) != "" {
		return []string{line}
	}
	head := strings.TrimSpace(line[:open+1])
	body := strings.TrimSpace(line[open+1 : end])
	if body == "" || !isBlockHeader(head) {
		return []string{line}
	}
	out := []string{head}
	out = append(out, splitBraces(body)...)
	return append(out, "}")
}

func isBlockHeader(head string) bool {
	return colonBlockRe.MatchString(head) || commaBlockRe.MatchString(head) || elseRe.MatchString(head)
}

// splitValues splits an assignment's right-hand side on whitespace,
// keeping double-quoted runs together and dropping stray continuation marks.
func splitValues(s string) []string {
	var (
		out     []string
		current strings.Builder
		quoted  bool
	)
	emit := func() {
		v := strings.TrimSpace(strings.Trim(current.String(), "\\"))
		current.Reset()
		if v != "" {
			out = append(out, v)
		}
	}
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			current.WriteRune(r)
		case !quoted && (r == ' ' || r == '\t'):
			emit()
		default:
			current.WriteRune(r)
		}
	}
	emit()
	return out
}
