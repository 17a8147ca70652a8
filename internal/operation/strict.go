package operation

import (
	"fmt"
	"regexp"
	"strings"
)

// StrictStrategy matches a single well-formed <NS:MARKER ...>payload</NS:MARKER> tag.
type StrictStrategy struct {
	pattern *regexp.Regexp
}

// NewStrictStrategy compiles the strict grammar for the given namespace and marker.
func NewStrictStrategy(namespace, marker string) *StrictStrategy {
	tag := regexp.QuoteMeta(namespace) + ":" + regexp.QuoteMeta(marker)
	attr := `\s+[A-Za-z_][\w-]*=(?:"[^"]*"|'[^']*'|[^\s"'>]+)`
	pattern := fmt.Sprintf(`(?is)<%s((?:%s)*)\s*>(.*?)</%s>`, tag, attr, tag)
	return &StrictStrategy{pattern: regexp.MustCompile(pattern)}
}

func (s *StrictStrategy) Name() string { return "strict" }

func (s *StrictStrategy) TryParse(text string) (*Candidate, bool, string) {
	loc := s.pattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil, false, text
	}
	typ, attrs := splitType(parseAttributes(text[loc[2]:loc[3]]))
	return &Candidate{
		Type:       typ,
		Attributes: attrs,
		Payload:    strings.TrimSpace(text[loc[4]:loc[5]]),
	}, true, cut(text, loc[0], loc[1])
}
