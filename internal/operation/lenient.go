package operation

import (
	"fmt"
	"regexp"
	"strings"
)

// LenientStrategy accepts whitespace inside the tags and a closing tag whose
// marker is missing or misspelled, e.g. </Q> or < / q : op >.
type LenientStrategy struct {
	pattern *regexp.Regexp
}

// NewLenientStrategy compiles the relaxed grammar for the given namespace and marker.
func NewLenientStrategy(namespace, marker string) *LenientStrategy {
	ns := regexp.QuoteMeta(namespace)
	open := fmt.Sprintf(`<\s*%s\s*:\s*%s\b([^>]*)>`, ns, regexp.QuoteMeta(marker))
	closing := fmt.Sprintf(`<\s*/\s*%s\s*(?::\s*[\w-]*\s*)?>`, ns)
	return &LenientStrategy{pattern: regexp.MustCompile(`(?is)` + open + `(.*?)` + closing)}
}

func (s *LenientStrategy) Name() string { return "lenient" }

func (s *LenientStrategy) TryParse(text string) (*Candidate, bool, string) {
	loc := s.pattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return nil, false, text
	}
	rawAttrs := strings.TrimSuffix(strings.TrimSpace(text[loc[2]:loc[3]]), "/")
	typ, attrs := splitType(parseAttributes(rawAttrs))
	return &Candidate{
		Type:       typ,
		Attributes: attrs,
		Payload:    strings.TrimSpace(text[loc[4]:loc[5]]),
	}, true, cut(text, loc[0], loc[1])
}
