package operation

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Result is the outcome of parsing one model reply.
type Result struct {
	// Request is nil when no valid operation was found.
	Request *Request
	// Text is the reply with the recognized tag removed.
	Text string
	// Err is a *ParseError, set only when a tag was found but was invalid.
	Err error
}

// Parser extracts at most one operation from a reply by trying its
// strategies in order.
type Parser struct {
	strategies []Strategy
	logger     *slog.Logger
}

// NewParser returns a parser with the strict, lenient and raw strategies.
func NewParser(namespace, marker string, logger *slog.Logger) *Parser {
	return NewParserWithStrategies(logger,
		NewStrictStrategy(namespace, marker),
		NewLenientStrategy(namespace, marker),
		NewRawStrategy(namespace, marker),
	)
}

// NewParserWithStrategies returns a parser trying strategies in the given order.
func NewParserWithStrategies(logger *slog.Logger, strategies ...Strategy) *Parser {
	if len(strategies) == 0 {
		panic("at least one strategy is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{strategies: strategies, logger: logger}
}

// Parse never fails hard: problems are reported through Result.Err.
func (p *Parser) Parse(text string) Result {
	for _, s := range p.strategies {
		cand, matched, cleaned := s.TryParse(text)
		if !matched {
			continue
		}
		p.logger.Debug("operation tag matched", "strategy", s.Name(), "type", cand.Type, "recovered", cand.Recovered)
		if cand.Err != nil {
			return Result{Text: cleaned, Err: &ParseError{Strategy: s.Name(), Cause: cand.Err}}
		}
		req, err := validate(cand)
		if err != nil {
			p.logger.Warn("invalid operation tag", "strategy", s.Name(), "error", err)
			return Result{Text: cleaned, Err: &ParseError{Strategy: s.Name(), Cause: err, Detail: detail(cand, err)}}
		}
		return Result{Request: req, Text: cleaned}
	}
	return Result{Text: text}
}

func detail(c *Candidate, err error) string {
	if errors.Is(err, ErrUnsupportedKind) {
		return fmt.Sprintf("'%s'", c.Type)
	}
	return ""
}

func validate(c *Candidate) (*Request, error) {
	kind := KindUnknown
	if c.Type == "" {
		kind = inferKind(c.Payload)
		if kind == KindUnknown {
			return nil, ErrMissingType
		}
	}
	if c.Payload == "" {
		return nil, ErrEmptyPayload
	}
	if kind == KindUnknown {
		k, ok := ParseKind(c.Type)
		if !ok {
			return nil, ErrUnsupportedKind
		}
		kind = k
	}
	attrs := c.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}
	return &Request{Kind: kind, Attributes: attrs, Payload: c.Payload, Recovered: c.Recovered}, nil
}

// inferKind guesses a kind from the payload: URLs are fetched, relative-looking
// paths are read. Anything else is ambiguous.
func inferKind(payload string) Kind {
	switch {
	case strings.HasPrefix(payload, "http://"), strings.HasPrefix(payload, "https://"):
		return KindFetch
	case strings.Contains(payload, "/") &&
		!strings.HasPrefix(payload, "/") &&
		!strings.HasPrefix(payload, "$") &&
		!strings.HasPrefix(payload, "sudo"):
		return KindRead
	default:
		return KindUnknown
	}
}
