package policy

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/Cyclone1070/q/internal/operation"
	"github.com/Cyclone1070/q/internal/policy/danger"
	"github.com/Cyclone1070/q/internal/policy/rules"
	pathsvc "github.com/Cyclone1070/q/internal/tool/service/path"
)

// Analyzer scores shell commands.
type Analyzer interface {
	Analyze(command string) danger.Analysis
}

// PathResolver turns operation paths into absolute paths.
type PathResolver interface {
	Abs(path string) (string, error)
	Home() string
}

// FileReader reads existing content for write previews.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// Options holds the engine switches taken from configuration.
type Options struct {
	// AllowAll approves every request for the whole session.
	AllowAll bool
	// FetchAlwaysApprove skips the fetch rules entirely.
	FetchAlwaysApprove bool
	// ApproveAllDefaultMinutes is offered when the user picks All.
	ApproveAllDefaultMinutes int
	// Now is the clock used by the approve-all window.
	Now func() time.Time
}

// Engine applies rules and asks the user when rules are not conclusive.
// The approve-all window and allow-all flag live here, not in package state.
type Engine struct {
	rules    *rules.Set
	analyzer Analyzer
	prompter Prompter
	files    FileReader
	resolver PathResolver
	window   *Window
	logger   *slog.Logger

	allowAll           bool
	fetchAlwaysApprove bool
	defaultMinutes     int
}

// NewEngine creates an Engine. All collaborators are required except logger.
func NewEngine(ruleSet *rules.Set, analyzer Analyzer, prompter Prompter, files FileReader, resolver PathResolver, opts Options, logger *slog.Logger) *Engine {
	if ruleSet == nil {
		panic("ruleSet is required")
	}
	if analyzer == nil {
		panic("analyzer is required")
	}
	if prompter == nil {
		panic("prompter is required")
	}
	if files == nil {
		panic("files is required")
	}
	if resolver == nil {
		panic("resolver is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	minutes := opts.ApproveAllDefaultMinutes
	if minutes <= 0 {
		minutes = 15
	}
	return &Engine{
		rules:              ruleSet,
		analyzer:           analyzer,
		prompter:           prompter,
		files:              files,
		resolver:           resolver,
		window:             NewWindow(opts.Now),
		logger:             logger,
		allowAll:           opts.AllowAll,
		fetchAlwaysApprove: opts.FetchAlwaysApprove,
		defaultMinutes:     minutes,
	}
}

// AutoApproving reports whether requests are currently approved without asking.
func (e *Engine) AutoApproving() bool {
	return e.allowAll || e.window.Active()
}

// Window exposes the approve-all window.
func (e *Engine) Window() *Window {
	return e.window
}

// RequestApproval decides req. It never returns an error: rule faults fall
// back to asking the user and input faults count as cancel.
func (e *Engine) RequestApproval(ctx context.Context, req Request) Decision {
	e.logger.DebugContext(ctx, "approval requested", "kind", req.Kind, "target", truncate(req.Target, 100))

	if e.allowAll {
		e.logger.InfoContext(ctx, "operation approved by allow-all flag", "kind", req.Kind)
		return approve()
	}
	if e.window.Active() {
		e.logger.InfoContext(ctx, "operation approved by approve-all window", "kind", req.Kind, "until", e.window.ExpiresAt())
		return approve()
	}

	switch req.Kind {
	case operation.KindShell:
		return e.checkShell(ctx, req)
	case operation.KindRead:
		return e.checkRead(ctx, req)
	case operation.KindWrite:
		return e.checkWrite(ctx, req)
	case operation.KindFetch:
		return e.checkFetch(ctx, req)
	default:
		e.logger.ErrorContext(ctx, "unknown operation type", "kind", req.Kind)
		return deny(fmt.Sprintf("Unknown operation type '%s'", req.Kind))
	}
}

func (e *Engine) checkShell(ctx context.Context, req Request) Decision {
	command := strings.TrimSpace(req.Target)
	if command == "" {
		return deny("Empty shell command received")
	}

	rule, matched, err := e.rules.ShellProhibited.Match(command)
	if matched {
		e.logger.WarnContext(ctx, "command matches prohibited pattern", "command", command, "pattern", rule)
		return deny(fmt.Sprintf("Command '%s' is prohibited (matches pattern: %s)", command, rule))
	}
	prohibitedFault := err != nil
	if prohibitedFault {
		e.logger.WarnContext(ctx, "prohibited command rules not evaluable", "error", err)
	}

	if !prohibitedFault {
		if rule, matched, _ := e.rules.ShellApproved.Match(command); matched {
			e.logger.DebugContext(ctx, "command auto-approved", "command", command, "pattern", rule)
			return approve()
		}
	}

	analysis := e.analyzer.Analyze(command)
	if analysis.Dangerous && analysis.Level >= danger.Medium {
		e.prompter.Show(dangerNotice(command, analysis))

		if analysis.Level == danger.Critical {
			e.prompter.Show(Notice{Level: NoticeDanger, Body: "This command could cause severe system damage!"})
			confirmation, err := e.prompter.Ask(ctx, "Type the command again to confirm you understand the risks", "")
			if err != nil || strings.TrimSpace(confirmation) != command {
				e.prompter.Show(Notice{Level: NoticeWarning, Body: "Confirmation failed. Command execution cancelled."})
				e.logger.WarnContext(ctx, "critical command confirmation failed", "command", command)
				return cancel()
			}
		}
	}

	e.prompter.Show(Notice{Level: NoticeInfo, Title: "Approve command", Body: command})
	return e.ask(ctx, "", fmt.Sprintf("command '%s'", command), req.Custom)
}

func (e *Engine) checkRead(ctx context.Context, req Request) Decision {
	if strings.TrimSpace(req.Target) == "" {
		return deny("Empty path received for read operation")
	}
	target, err := e.resolver.Abs(req.Target)
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to resolve read path", "path", req.Target, "error", err)
		return deny(fmt.Sprintf("Error resolving path '%s': %v", req.Target, err))
	}

	restricted := false

	rule, matched, err := e.rules.ReadProhibited.Match(target)
	if matched {
		e.logger.WarnContext(ctx, "read path prohibited", "path", target, "rule", rule)
		return deny(fmt.Sprintf("Reading from path '%s' is prohibited (matches rule: %s)", target, rule))
	}
	if err != nil {
		e.logger.WarnContext(ctx, "prohibited read rules not evaluable", "error", err)
		restricted = true
	}

	if _, matched, err := e.rules.ReadRestricted.Match(target); matched || err != nil {
		restricted = true
	}

	home := e.resolver.Home()
	if home == "" || !pathsvc.Within(target, home) {
		e.logger.DebugContext(ctx, "read path outside home", "path", target, "home", home)
		restricted = true
	}

	if !restricted {
		e.logger.DebugContext(ctx, "read path allowed", "path", target)
		return approve()
	}

	return e.ask(ctx, fmt.Sprintf("Approve reading restricted path: %s", target), fmt.Sprintf("reading path '%s'", target), req.Custom)
}

func (e *Engine) checkWrite(ctx context.Context, req Request) Decision {
	if strings.TrimSpace(req.Target) == "" {
		return deny("Empty path received for write operation")
	}
	target, err := e.resolver.Abs(req.Target)
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to resolve write path", "path", req.Target, "error", err)
		return deny(fmt.Sprintf("Error resolving path '%s': %v", req.Target, err))
	}

	rule, matched, err := e.rules.WriteProhibited.Match(target)
	if matched {
		reason := fmt.Sprintf("Writing to path '%s' is prohibited (matches pattern: %s)", target, rule)
		e.logger.WarnContext(ctx, "write path prohibited", "path", target, "pattern", rule)
		e.prompter.Show(Notice{Level: NoticeDanger, Title: "Denied", Body: reason})
		return deny(reason)
	}
	prohibitedFault := err != nil
	if prohibitedFault {
		e.logger.WarnContext(ctx, "prohibited write rules not evaluable", "error", err)
	}

	if !prohibitedFault {
		if rule, matched, _ := e.rules.WriteApproved.Match(target); matched {
			e.logger.DebugContext(ctx, "write path auto-approved", "path", target, "pattern", rule)
			return approve()
		}
	}

	existing, err := e.files.ReadFile(target)
	exists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		e.logger.WarnContext(ctx, "could not read existing file for preview", "path", target, "error", err)
	}
	e.prompter.Show(Notice{Level: NoticeInfo, Title: "Preview of " + target, Body: WritePreview(target, existing, exists, req.Body)})

	return e.ask(ctx, fmt.Sprintf("Approve writing to path: %s", target), fmt.Sprintf("writing to path '%s'", target), req.Custom)
}

func (e *Engine) checkFetch(ctx context.Context, req Request) Decision {
	target := strings.TrimSpace(req.Target)
	if e.fetchAlwaysApprove {
		return approve()
	}

	rule, matched, err := e.matchFetch(target)
	if matched {
		e.logger.WarnContext(ctx, "fetch url prohibited", "url", target, "pattern", rule)
		return deny(fmt.Sprintf("Fetching URL '%s' is prohibited (matches pattern: %s)", target, rule))
	}
	if err != nil {
		e.logger.WarnContext(ctx, "prohibited fetch rules not evaluable", "url", target, "error", err)
		return e.ask(ctx, fmt.Sprintf("Approve fetching URL: %s", target), fmt.Sprintf("fetching '%s'", target), req.Custom)
	}
	return approve()
}

// CheckRedirect is consulted for every redirect hop of an approved fetch.
// A prohibited target or an unevaluable rule refuses the hop.
func (e *Engine) CheckRedirect(target string) error {
	if e.fetchAlwaysApprove {
		return nil
	}
	rule, matched, err := e.matchFetch(target)
	if matched {
		e.logger.Warn("fetch redirect prohibited", "url", target, "pattern", rule)
		return fmt.Errorf("%w: '%s' matches pattern: %s", ErrRedirectProhibited, target, rule)
	}
	if err != nil {
		e.logger.Warn("prohibited fetch rules not evaluable for redirect", "url", target, "error", err)
		return fmt.Errorf("%w: '%s': %v", ErrRedirectProhibited, target, err)
	}
	return nil
}

// matchFetch matches target against the prohibited URL rules, both as given
// and with a lowercased scheme and host.
func (e *Engine) matchFetch(target string) (string, bool, error) {
	rule, matched, err := e.rules.FetchProhibited.Match(target)
	if matched {
		return rule, true, nil
	}
	normalized, perr := normalizeURL(target)
	if perr != nil {
		return "", false, errors.Join(err, perr)
	}
	if normalized != target {
		nrule, nmatched, nerr := e.rules.FetchProhibited.Match(normalized)
		if nmatched {
			return nrule, true, nil
		}
		err = errors.Join(err, nerr)
	}
	return "", false, err
}

func normalizeURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u.String(), nil
}

// ask prompts and turns the answer into a decision.
func (e *Engine) ask(ctx context.Context, prompt, desc string, custom *Choice) Decision {
	key := e.choose(ctx, prompt, custom)

	if custom != nil && key == strings.ToLower(custom.Key) {
		e.logger.InfoContext(ctx, "user chose custom option", "key", key, "operation", desc)
		return customChoice(custom.Key)
	}

	switch key {
	case "y":
		e.logger.InfoContext(ctx, "user approved", "operation", desc)
		return approve()
	case "n":
		e.logger.WarnContext(ctx, "user denied", "operation", desc)
		return deny("Operation was rejected by the user: " + desc)
	case "c":
		e.logger.WarnContext(ctx, "user cancelled", "operation", desc)
		return cancel()
	case "a":
		minutes := e.askMinutes(ctx, e.defaultMinutes)
		if e.window.Open(time.Duration(minutes) * time.Minute) {
			e.logger.InfoContext(ctx, "approve-all activated", "until", e.window.ExpiresAt())
			e.prompter.Show(Notice{Level: NoticeWarning, Body: fmt.Sprintf("Auto-approval enabled for %d minutes.", minutes)})
		} else {
			e.prompter.Show(Notice{Level: NoticeInfo, Body: "Auto-approval not enabled."})
		}
		return approve()
	default:
		e.logger.ErrorContext(ctx, "unexpected choice key", "key", key)
		return deny(fmt.Sprintf("Unexpected choice key '%s' received", key))
	}
}

func dangerNotice(command string, a danger.Analysis) Notice {
	level := NoticeWarning
	if a.Level >= danger.High {
		level = NoticeDanger
	}
	var body strings.Builder
	fmt.Fprintf(&body, "Command: %s\n\nDetected risks:\n", command)
	for _, r := range a.Reasons {
		fmt.Fprintf(&body, "• %s\n", r)
	}
	return Notice{
		Level: level,
		Title: strings.ToUpper(a.Level.String()) + " RISK COMMAND",
		Body:  strings.TrimRight(body.String(), "\n"),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
