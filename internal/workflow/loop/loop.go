// Package loop drives one user turn: send, parse, execute, feed back, until
// the model replies without an operation.
package loop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Cyclone1070/q/internal/operation"
	"github.com/Cyclone1070/q/internal/workflow"
	"github.com/oklog/ulid/v2"
)

// RecoveredNotice follows the reply text when the operation came from a
// malformed tag.
const RecoveredNotice = "Note: Operation tag was malformed but Q attempted to recover it. Please verify the results."

// ErrMaxIterations is returned when a turn keeps requesting operations.
var ErrMaxIterations = errors.New("max operations per turn reached")

type Loop struct {
	conv          conversation
	parser        parser
	runner        operationRunner
	events        workflow.Emitter
	maxIterations int
	logger        *slog.Logger
}

func NewLoop(conv conversation, parser parser, runner operationRunner, events workflow.Emitter, maxIterations int, logger *slog.Logger) *Loop {
	if conv == nil {
		panic("conversation is required")
	}
	if parser == nil {
		panic("parser is required")
	}
	if runner == nil {
		panic("runner is required")
	}
	if events == nil {
		events = workflow.Discard
	}
	if maxIterations < 1 {
		panic("maxIterations must be >= 1")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		conv:          conv,
		parser:        parser,
		runner:        runner,
		events:        events,
		maxIterations: maxIterations,
		logger:        logger,
	}
}

// RunTurn handles one user input. Only cancellation and the iteration cap
// end a turn with an error; everything else is reported to the model.
func (l *Loop) RunTurn(ctx context.Context, input string) error {
	turnID := ulid.Make().String()
	logger := l.logger.With("turn", turnID)
	defer l.events.Emit(workflow.DoneEvent{TurnID: turnID})

	l.events.Emit(workflow.ThinkingEvent{})
	reply, err := l.conv.Send(ctx, input)
	if err != nil {
		return fmt.Errorf("conversation.Send: %w", err)
	}

	for i := 0; ; i++ {
		result := l.parser.Parse(reply)
		l.show(ctx, logger, result)
		if result.Request == nil {
			return nil
		}

		// The reply that hits the cap is shown but its operation is not run.
		if i == l.maxIterations {
			logger.WarnContext(ctx, "operation cap reached", "max", l.maxIterations, "dropped", result.Request.Kind)
			l.events.Emit(workflow.NoticeEvent{Level: workflow.NoticeWarning, Text: fmt.Sprintf("Stopped after %d operations in one turn.", l.maxIterations)})
			return fmt.Errorf("%w (%d)", ErrMaxIterations, l.maxIterations)
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		logger.InfoContext(ctx, "found operation", "kind", result.Request.Kind, "iteration", i+1)
		opReply := l.runner.Execute(ctx, *result.Request)
		if err := ctx.Err(); err != nil {
			return err
		}

		l.events.Emit(workflow.ThinkingEvent{})
		if opReply.Attachment != nil {
			reply, err = l.conv.SendAttachment(ctx, opReply.Text(), *opReply.Attachment)
		} else {
			reply, err = l.conv.Send(ctx, opReply.Text())
		}
		if err != nil {
			return fmt.Errorf("conversation.Send: %w", err)
		}
	}
}

// show emits the reply's prose and any parse problem.
func (l *Loop) show(ctx context.Context, logger *slog.Logger, result operation.Result) {
	text := strings.TrimSpace(result.Text)
	if result.Request != nil && result.Request.Recovered {
		logger.WarnContext(ctx, "operation recovered from malformed tag", "kind", result.Request.Kind)
		if text != "" {
			text += "\n\n"
		}
		text += RecoveredNotice
	}
	if text != "" {
		l.events.Emit(workflow.TextEvent{Text: text})
	}
	if result.Err != nil {
		logger.ErrorContext(ctx, "operation parsing failed", "error", result.Err)
		l.events.Emit(workflow.NoticeEvent{Level: workflow.NoticeError, Text: "Error parsing operation: " + result.Err.Error()})
	}
}
