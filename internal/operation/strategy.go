package operation

import (
	"regexp"
	"strings"
)

// Candidate is what a strategy extracted before validation.
type Candidate struct {
	Type       string
	Attributes map[string]string
	Payload    string
	Recovered  bool
	// Err is set when a tag was found but cannot be turned into a request.
	Err error
}

// Strategy is one way of locating an operation tag in free text.
// When matched is false, newText must equal text.
type Strategy interface {
	Name() string
	TryParse(text string) (c *Candidate, matched bool, newText string)
}

// attrPattern matches key=value pairs with double, single or no quotes.
var attrPattern = regexp.MustCompile(`([A-Za-z_][\w-]*)\s*=\s*("[^"]*"|'[^']*'|[^\s"'>]+)`)

// parseAttributes returns the attributes in s with lowercased keys.
// The first occurrence of a key wins.
func parseAttributes(s string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range attrPattern.FindAllStringSubmatch(s, -1) {
		key := strings.ToLower(m[1])
		if _, seen := attrs[key]; seen {
			continue
		}
		attrs[key] = unquote(m[2])
	}
	return attrs
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}

// splitType moves the type attribute out of attrs.
func splitType(attrs map[string]string) (string, map[string]string) {
	t := attrs["type"]
	delete(attrs, "type")
	return t, attrs
}

// cut removes text[start:end].
func cut(text string, start, end int) string {
	return text[:start] + text[end:]
}
