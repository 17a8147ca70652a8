// Package danger scores shell command lines against known-risky commands,
// flags and filesystem targets. The result is advisory.
package danger

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Level orders findings by severity.
type Level int

const (
	Low Level = iota
	Medium
	High
	Critical
)

func (l Level) String() string {
	switch l {
	case Medium:
		return "medium"
	case High:
		return "high"
	case Critical:
		return "critical"
	default:
		return "low"
	}
}

// Analysis is the derived risk profile of one command line.
type Analysis struct {
	Dangerous bool
	Level     Level
	Reasons   []string
	// Segments holds the tokens of each simple command, in source order.
	Segments [][]string
}

func (a *Analysis) flag(level Level, format string, args ...any) {
	a.Dangerous = true
	a.Level = max(a.Level, level)
	a.Reasons = append(a.Reasons, fmt.Sprintf(format, args...))
}

// Analyzer scores commands. It is stateless apart from the home directory
// used to expand ~ in sensitive paths.
type Analyzer struct {
	home string
}

// NewAnalyzer returns an analyzer expanding ~ to home.
func NewAnalyzer(home string) *Analyzer {
	return &Analyzer{home: home}
}

// Analyze tokenizes command and classifies every simple command in it.
func (a *Analyzer) Analyze(command string) Analysis {
	var result Analysis

	parsed, err := tokenize(command)
	if err != nil {
		result.flag(Medium, "command could not be parsed: %v", err)
		parsed = fallbackTokenize(command)
	}
	result.Segments = parsed.segments

	for i, seg := range parsed.segments {
		if len(seg) == 0 {
			continue
		}
		a.classify(&result, i, seg)
	}

	for _, target := range parsed.redirects {
		if !harmlessDevices[target] && a.isSensitivePath(target) {
			result.flag(High, "output redirected to sensitive path: %s", target)
		}
	}

	if parsed.pipedToShell {
		result.flag(High, "piping content directly to shell for execution")
	}

	return result
}

func (a *Analyzer) classify(result *Analysis, index int, seg []string) {
	cmd := commandName(seg[0])
	args := seg[1:]

	if info, ok := dangerousCommands[cmd]; ok {
		result.flag(info.level, "command '%s' (%s)", cmd, info.description)
		for _, arg := range args {
			if slices.Contains(dangerousFlags[cmd], arg) {
				result.flag(High, "dangerous flag '%s' used with '%s'", arg, cmd)
			}
		}
		if paths := a.sensitiveArgs(args); len(paths) > 0 {
			result.flag(High, "operation on sensitive paths: %s", strings.Join(paths, ", "))
		}
	} else if _, ok := contextCommands[cmd]; ok {
		a.classifyRemove(result, cmd, args)
	} else if paths := a.sensitiveArgs(args); len(paths) > 0 {
		level := Medium
		if isWildcardOnly(paths) {
			level = Low
		}
		result.flag(level, "command '%s' references sensitive paths: %s", cmd, strings.Join(paths, ", "))
	}

	if _, ok := wrapperCommands[cmd]; ok {
		classifyWrapper(result, index, cmd, args)
	}
}

func (a *Analyzer) classifyRemove(result *Analysis, cmd string, args []string) {
	var flags []string
	for _, arg := range args {
		if slices.Contains(dangerousFlags[cmd], arg) || isCombinedForceRecursive(arg) {
			flags = append(flags, arg)
		}
	}
	var sensitive []string
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") && a.isSensitivePath(arg) {
			sensitive = append(sensitive, arg)
		}
	}
	wildcard := slices.ContainsFunc(args, hasWildcard)

	switch {
	case len(flags) > 0 && slices.ContainsFunc(args, func(s string) bool { return rootTargets[s] }):
		result.flag(Critical, "command '%s' recursively deleting the filesystem root", cmd)
	case len(sensitive) > 0:
		result.flag(High, "command '%s' targeting sensitive paths: %s", cmd, strings.Join(sensitive, ", "))
	case len(flags) > 0:
		for _, f := range flags {
			result.flag(High, "dangerous flag '%s' used with '%s'", f, cmd)
		}
	case wildcard:
		result.flag(Medium, "command '%s' with wildcards", cmd)
	}
}

func classifyWrapper(result *Analysis, index int, cmd string, args []string) {
	if cmd == "xargs" {
		target := ""
		for _, arg := range args {
			if !strings.HasPrefix(arg, "-") {
				target = commandName(arg)
				break
			}
		}
		switch {
		case target == "" && index > 0:
			result.flag(Medium, "command 'rm' may be implicitly used with xargs")
		case target != "":
			if info, ok := dangerousCommands[target]; ok {
				result.flag(info.level, "dangerous command '%s' executed via %s", target, cmd)
			} else if _, ok := contextCommands[target]; ok {
				result.flag(Medium, "command '%s' executed via %s", target, cmd)
			}
		}
		return
	}

	words := strings.Fields(strings.Join(args, " "))
	for _, w := range words {
		name := commandName(w)
		if info, ok := dangerousCommands[name]; ok {
			result.flag(info.level, "dangerous command '%s' potentially executed via %s", name, cmd)
		} else if _, ok := contextCommands[name]; ok {
			result.flag(Medium, "command '%s' potentially executed via %s", name, cmd)
		}
	}
}

// sensitiveArgs returns the non-flag arguments that touch a sensitive location
// or contain a wildcard.
func (a *Analyzer) sensitiveArgs(args []string) []string {
	var out []string
	for _, arg := range args {
		if strings.HasPrefix(arg, "-") {
			continue
		}
		if hasWildcard(arg) || a.isSensitivePath(arg) {
			out = append(out, arg)
		}
	}
	return out
}

func (a *Analyzer) isSensitivePath(p string) bool {
	p = a.expandHome(p)
	for _, s := range sensitivePaths {
		s = a.expandHome(s)
		if p == s {
			return true
		}
		if prefix, ok := strings.CutSuffix(s, "*"); ok && strings.HasPrefix(p, prefix) && prefix != "/" {
			return true
		}
		if s != "/" && !strings.HasSuffix(s, "*") && strings.HasPrefix(p, s+"/") {
			return true
		}
	}
	return false
}

func (a *Analyzer) expandHome(p string) string {
	if a.home == "" {
		return p
	}
	if p == "~" {
		return a.home
	}
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		return filepath.Join(a.home, rest)
	}
	return p
}

func hasWildcard(s string) bool {
	return strings.Contains(s, "*")
}

func isWildcardOnly(paths []string) bool {
	for _, p := range paths {
		if !hasWildcard(p) || strings.HasPrefix(p, "/") || strings.HasPrefix(p, "~") {
			return false
		}
	}
	return true
}

// isCombinedForceRecursive recognizes short flag clusters such as -rfv.
func isCombinedForceRecursive(arg string) bool {
	if !strings.HasPrefix(arg, "-") || strings.HasPrefix(arg, "--") {
		return false
	}
	return strings.ContainsAny(arg, "rR") && strings.Contains(arg, "f")
}

// commandName strips any directory so /bin/rm and rm classify alike.
// mkfs.ext4 and friends classify as mkfs.
func commandName(s string) string {
	if s == "." {
		return s
	}
	name := strings.ToLower(filepath.Base(s))
	if strings.HasPrefix(name, "mkfs.") {
		return "mkfs"
	}
	return name
}

type parsedCommand struct {
	segments [][]string
	// redirects holds the targets of output redirections.
	redirects []string
	// pipedToShell is set when a pipeline feeds a shell interpreter.
	pipedToShell bool
}

// tokenize splits command into simple commands using a bash parser.
func tokenize(command string) (parsedCommand, error) {
	var out parsedCommand

	parser := syntax.NewParser(syntax.KeepComments(false), syntax.Variant(syntax.LangBash))
	file, err := parser.Parse(strings.NewReader(command), "")
	if err != nil {
		return out, err
	}

	syntax.Walk(file, func(node syntax.Node) bool {
		switch n := node.(type) {
		case *syntax.CallExpr:
			if len(n.Args) == 0 {
				return true
			}
			seg := make([]string, 0, len(n.Args))
			for _, w := range n.Args {
				seg = append(seg, wordToString(w))
			}
			out.segments = append(out.segments, seg)
		case *syntax.Redirect:
			if n.Op == syntax.RdrOut || n.Op == syntax.AppOut ||
				n.Op == syntax.RdrAll || n.Op == syntax.AppAll {
				if target := wordToString(n.Word); target != "" {
					out.redirects = append(out.redirects, target)
				}
			}
		case *syntax.BinaryCmd:
			if n.Op == syntax.Pipe || n.Op == syntax.PipeAll {
				if call := firstCall(n.Y); call != nil && len(call.Args) > 0 {
					if shellInterpreters[commandName(wordToString(call.Args[0]))] {
						out.pipedToShell = true
					}
				}
			}
		}
		return true
	})

	return out, nil
}

// firstCall returns the leftmost simple command of a statement.
func firstCall(stmt *syntax.Stmt) *syntax.CallExpr {
	if stmt == nil {
		return nil
	}
	switch c := stmt.Cmd.(type) {
	case *syntax.CallExpr:
		return c
	case *syntax.BinaryCmd:
		return firstCall(c.X)
	default:
		return nil
	}
}

// wordToString flattens a word to the text it would most plausibly expand to.
func wordToString(w *syntax.Word) string {
	if w == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range w.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			sb.WriteString(p.Value)
		case *syntax.SglQuoted:
			sb.WriteString(p.Value)
		case *syntax.DblQuoted:
			for _, inner := range p.Parts {
				switch ip := inner.(type) {
				case *syntax.Lit:
					sb.WriteString(ip.Value)
				case *syntax.ParamExp:
					writeParam(&sb, ip)
				}
			}
		case *syntax.ParamExp:
			writeParam(&sb, p)
		case *syntax.CmdSubst:
			sb.WriteString("$(...)")
		}
	}
	return sb.String()
}

func writeParam(sb *strings.Builder, p *syntax.ParamExp) {
	if p.Param == nil {
		return
	}
	if p.Short {
		sb.WriteString("$" + p.Param.Value)
		return
	}
	sb.WriteString("${" + p.Param.Value + "}")
}

// fallbackTokenize splits on pipes and whitespace when the parser rejects the input.
func fallbackTokenize(command string) parsedCommand {
	var out parsedCommand
	for _, part := range strings.Split(command, "|") {
		if fields := strings.Fields(part); len(fields) > 0 {
			if len(out.segments) > 0 && shellInterpreters[commandName(fields[0])] {
				out.pipedToShell = true
			}
			out.segments = append(out.segments, fields)
		}
	}
	return out
}
