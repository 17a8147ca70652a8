package rules

import (
	"errors"

	"github.com/Cyclone1070/q/internal/config"
)

// Built-in rules. User rules are appended after these and can only add to them.
var (
	DefaultReadProhibited = []string{
		"/etc/shadow",
		"/etc/gshadow",
		"/etc/sudoers",
		"~/.ssh",
		".gnupg",
		"*.pem",
		"id_rsa",
		"id_ed25519",
	}

	DefaultReadRestricted = []string{
		"/etc",
		"/var/log",
		".env",
		".aws",
		".kube",
		".netrc",
		".bash_history",
		".zsh_history",
	}

	DefaultWriteProhibited = []string{
		"/etc/*",
		"/usr/*",
		"/bin/*",
		"/sbin/*",
		"/boot/*",
		"/dev/*",
		"/proc/*",
		"/sys/*",
		"~/.ssh/*",
		"~/.gnupg/*",
	}

	DefaultWriteApproved = []string{}

	DefaultShellProhibited = []string{
		"rm -rf /",
		"rm -rf /*",
		"rm -fr /",
		`:()\{ :|:& \};:`,
		"*> /dev/sd*",
	}

	DefaultShellApproved = []string{
		"ls",
		"pwd",
		"whoami",
		"date",
		"git status",
		"git diff",
		"git log",
	}

	DefaultFetchProhibited = []string{
		"file://*",
		"http://169.254.169.254*",
	}
)

// Merge returns defaults followed by user. Entries are not de-duplicated.
func Merge(defaults, user []string) []string {
	out := make([]string, 0, len(defaults)+len(user))
	out = append(out, defaults...)
	return append(out, user...)
}

// Set bundles every rule list the policy engine consults.
type Set struct {
	ReadProhibited  *PathRules
	ReadRestricted  *PathRules
	WriteProhibited *Patterns
	WriteApproved   *Patterns
	ShellProhibited *Patterns
	ShellApproved   *Patterns
	FetchProhibited *Patterns
}

// NewSet merges the built-in defaults with cfg. The returned set is always
// usable; the error lists rules that failed to compile.
func NewSet(cfg config.PolicyConfig, home string) (*Set, error) {
	s := &Set{
		ReadProhibited:  NewPathRules(Merge(DefaultReadProhibited, cfg.ReadProhibited), home),
		ReadRestricted:  NewPathRules(Merge(DefaultReadRestricted, cfg.ReadRestricted), home),
		WriteProhibited: NewPatterns(Merge(DefaultWriteProhibited, cfg.WriteProhibited), home),
		WriteApproved:   NewPatterns(Merge(DefaultWriteApproved, cfg.WriteApproved), home),
		ShellProhibited: NewPatterns(Merge(DefaultShellProhibited, cfg.ShellProhibited), home),
		ShellApproved:   NewPatterns(Merge(DefaultShellApproved, cfg.ShellApproved), home),
		FetchProhibited: NewPatterns(Merge(DefaultFetchProhibited, cfg.FetchProhibited), home),
	}
	return s, errors.Join(
		s.ReadProhibited.Err(),
		s.ReadRestricted.Err(),
		s.WriteProhibited.Err(),
		s.WriteApproved.Err(),
		s.ShellProhibited.Err(),
		s.ShellApproved.Err(),
		s.FetchProhibited.Err(),
	)
}
