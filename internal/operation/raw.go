package operation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	urlPattern       = regexp.MustCompile(`https?://\S+`)
	pathPattern      = regexp.MustCompile(`[a-zA-Z0-9_\-./]+\.[a-zA-Z0-9]+`)
	typeAttrPattern  = regexp.MustCompile(`(?i)type\s*=\s*["']?(\w+)["']?`)
	pathAttrPattern  = regexp.MustCompile(`(?i)path\s*=\s*["']?([^"'>\s]+)["']?`)
	shellBodyPattern = regexp.MustCompile(`(?is)type\s*=\s*["']?shell["']?\s*>(.+?)</`)
	fencedPattern    = regexp.MustCompile("(?s)```[^\n]*\n(.*?)```")
)

// RawStrategy recovers an operation from a tag too damaged for the structural
// strategies. It only runs when the text carries marker evidence, and it never
// invents a write target.
type RawStrategy struct {
	evidence     *regexp.Regexp
	partialWrite *regexp.Regexp
	wrapped      *regexp.Regexp
	writeClosed  *regexp.Regexp
	writeOpen    *regexp.Regexp
}

// NewRawStrategy compiles the recovery heuristics for the given namespace and marker.
func NewRawStrategy(namespace, marker string) *RawStrategy {
	ns := regexp.QuoteMeta(namespace)
	mk := regexp.QuoteMeta(marker)
	writeAttrs := `[^>]*?type\s*=\s*["']?write["']?[^>]*?path\s*=\s*["']?([^"'>]+)["']?[^>]*?>`
	return &RawStrategy{
		evidence:     regexp.MustCompile(fmt.Sprintf(`(?is)<\s*%s.*?%s.*?>.*?</\s*%s.*?%s.*?>`, ns, mk, ns, mk)),
		partialWrite: regexp.MustCompile(fmt.Sprintf(`(?i)<\s*%s:%s`, ns, writeAttrs)),
		wrapped:      regexp.MustCompile(fmt.Sprintf(`(?is)<\s*%s[^>]*?%s[^>]*?>(.+?)</\s*%s[^>]*?%s[^>]*?>`, ns, mk, ns, mk)),
		writeClosed:  regexp.MustCompile(fmt.Sprintf(`(?is)<\s*%s:%s%s(.+?)</\s*%s`, ns, mk, writeAttrs, ns)),
		writeOpen:    regexp.MustCompile(fmt.Sprintf(`(?is)<\s*%s%s(.+?)(?:</\s*%s|$)`, ns, writeAttrs, ns)),
	}
}

func (s *RawStrategy) Name() string { return "raw" }

// HasEvidence reports whether text looks like it tried to contain a tag.
func (s *RawStrategy) HasEvidence(text string) bool {
	return s.evidence.MatchString(text) || s.partialWrite.MatchString(text)
}

func (s *RawStrategy) TryParse(text string) (*Candidate, bool, string) {
	if !s.HasEvidence(text) {
		return nil, false, text
	}

	if loc := s.wrapped.FindStringSubmatchIndex(text); loc != nil {
		return s.fromWrapped(text, loc)
	}

	for _, re := range []*regexp.Regexp{s.writeClosed, s.writeOpen} {
		if loc := re.FindStringSubmatchIndex(text); loc != nil {
			path := strings.TrimSpace(text[loc[2]:loc[3]])
			body := strings.TrimSpace(text[loc[4]:loc[5]])
			return &Candidate{
				Type:       KindWrite.String(),
				Attributes: map[string]string{"path": path},
				Payload:    stripFences(body),
				Recovered:  true,
			}, true, cut(text, loc[0], loc[1])
		}
	}

	return nil, false, text
}

func (s *RawStrategy) fromWrapped(text string, loc []int) (*Candidate, bool, string) {
	// Attributes are only read from the matched tag; prose around it may
	// mention type= or path= too.
	tag := text[loc[0]:loc[1]]
	inner := strings.TrimSpace(text[loc[2]:loc[3]])
	cleaned := cut(text, loc[0], loc[1])

	typ := ""
	if m := typeAttrPattern.FindStringSubmatch(tag); m != nil {
		typ = strings.ToLower(m[1])
	} else {
		typ = inferKind(inner).String()
		if typ == KindUnknown.String() {
			typ = KindShell.String()
		}
	}

	c := &Candidate{Type: typ, Attributes: map[string]string{}, Recovered: true}
	switch typ {
	case KindShell.String():
		c.Payload = inner
		if m := shellBodyPattern.FindStringSubmatch(tag); m != nil {
			c.Payload = strings.TrimSpace(m[1])
		}
	case KindFetch.String():
		c.Payload = firstOr(urlPattern, inner)
	case KindRead.String():
		c.Payload = firstOr(pathPattern, inner)
	case KindWrite.String():
		m := pathAttrPattern.FindStringSubmatch(tag)
		if m == nil {
			c.Err = fmt.Errorf("%w for recovered write operation", ErrMissingPath)
			return c, true, text
		}
		c.Attributes["path"] = m[1]
		c.Payload = inner
		if fm := fencedPattern.FindStringSubmatch(inner); fm != nil {
			c.Payload = strings.TrimSpace(fm[1])
		}
	default:
		c.Payload = inner
	}
	return c, true, cleaned
}

func firstOr(re *regexp.Regexp, s string) string {
	if m := re.FindString(s); m != "" {
		return m
	}
	return s
}

// stripFences removes one pair of ``` lines wrapping s, or extracts the first
// fenced block when the fence is not at the edges.
func stripFences(s string) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= 2 &&
		strings.HasPrefix(strings.TrimSpace(lines[0]), "```") &&
		strings.TrimSpace(lines[len(lines)-1]) == "```" {
		return strings.Join(lines[1:len(lines)-1], "\n")
	}
	if m := fencedPattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}
