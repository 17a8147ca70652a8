package operation

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Request is a single action extracted from a model reply.
type Request struct {
	Kind Kind
	// Attributes holds every tag attribute except type, with lowercased keys.
	Attributes map[string]string
	Payload    string
	// Recovered is set when the request came from raw recovery of a malformed tag.
	Recovered bool
}

// Attr returns the named attribute or "".
func (r Request) Attr(key string) string {
	if r.Attributes == nil {
		return ""
	}
	return r.Attributes[strings.ToLower(key)]
}

// Target is the path or URL the request acts on.
func (r Request) Target() string {
	switch r.Kind {
	case KindWrite:
		return r.Attr("path")
	case KindRead, KindFetch:
		return r.Payload
	case KindShell:
		return r.Payload
	default:
		return ""
	}
}

// Render produces the canonical tag for req.
func Render(req Request, namespace, marker string) string {
	var b strings.Builder
	tag := namespace + ":" + marker
	fmt.Fprintf(&b, "<%s type=%s", tag, quoteAttr(req.Kind.String()))
	for _, key := range slices.Sorted(maps.Keys(req.Attributes)) {
		if key == "type" {
			continue
		}
		fmt.Fprintf(&b, " %s=%s", key, quoteAttr(req.Attributes[key]))
	}
	fmt.Fprintf(&b, ">%s</%s>", req.Payload, tag)
	return b.String()
}

func quoteAttr(v string) string {
	if strings.Contains(v, `"`) {
		return "'" + v + "'"
	}
	return `"` + v + `"`
}
