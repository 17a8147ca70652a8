package services

import (
	"fmt"
	"strings"

	"github.com/Cyclone1070/q/internal/operation"
)

const maxTargetWidth = 80

// FormatOperation generates a one-line description of an operation for
// status lines.
func FormatOperation(kind operation.Kind, target string) string {
	target = shorten(target)
	switch kind {
	case operation.KindShell:
		return fmt.Sprintf("Shell '%s'", target)
	case operation.KindRead:
		return fmt.Sprintf("ReadFile %s", target)
	case operation.KindWrite:
		return fmt.Sprintf("WriteFile %s", target)
	case operation.KindFetch:
		return fmt.Sprintf("Fetch %s", target)
	default:
		if target == "" {
			return kind.String()
		}
		return fmt.Sprintf("%s %s", kind, target)
	}
}

// shorten keeps the first line of s and cuts it to maxTargetWidth runes.
func shorten(s string) string {
	s = strings.TrimSpace(s)
	if line, _, found := strings.Cut(s, "\n"); found {
		s = line + " …"
	}
	runes := []rune(s)
	if len(runes) > maxTargetWidth {
		return string(runes[:maxTargetWidth-1]) + "…"
	}
	return s
}
