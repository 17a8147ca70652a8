package content

import "strings"

const fence = "```"

// StripFence removes one layer of fenced-code wrapping. Content is only
// unwrapped when it both starts and ends with a fence; the first and last
// lines are dropped.
func StripFence(s string) string {
	if !strings.HasPrefix(s, fence) || !strings.HasSuffix(s, fence) {
		return s
	}
	lines := Lines(s)
	if len(lines) < 2 {
		return ""
	}
	return strings.Join(lines[1:len(lines)-1], "\n")
}

// Lines splits s on LF or CRLF. A final line ending adds no empty line, and
// a CR not followed by LF stays part of the line.
func Lines(s string) []string {
	if s == "" {
		return nil
	}
	terminated := strings.HasSuffix(s, "\n")
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	for i := range lines {
		if i < len(lines)-1 || terminated {
			lines[i] = strings.TrimSuffix(lines[i], "\r")
		}
	}
	return lines
}

// escapes are undone in this order, one pass each.
var escapes = [][2]string{
	{`\n`, "\n"},
	{`\"`, `"`},
	{`\\`, `\`},
	{`\'`, "'"},
	{`\t`, "\t"},
	{`\r`, "\r"},
}

// Unescape replaces the literal escape sequences models tend to emit for
// file content with the characters they stand for.
func Unescape(s string) string {
	for _, e := range escapes {
		s = strings.ReplaceAll(s, e[0], e[1])
	}
	return s
}

// NormalizeWriteContent prepares model-supplied file content for writing.
func NormalizeWriteContent(s string) string {
	return Unescape(StripFence(s))
}
