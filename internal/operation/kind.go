package operation

import "strings"

// Kind identifies what an operation does. The set is closed; every switch
// over Kind must handle all four values.
type Kind int

const (
	KindUnknown Kind = iota
	KindShell
	KindRead
	KindWrite
	KindFetch
)

var kindNames = map[Kind]string{
	KindShell: "shell",
	KindRead:  "read",
	KindWrite: "write",
	KindFetch: "fetch",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind maps a type attribute value to a Kind, ignoring case.
func ParseKind(s string) (Kind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return KindUnknown, false
}

// Kinds returns every valid Kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindShell, KindRead, KindWrite, KindFetch}
}
