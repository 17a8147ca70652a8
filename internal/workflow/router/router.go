// Package router executes one parsed operation: it asks the policy engine
// for approval, runs the matching tool and turns the outcome into a Reply
// for the model.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Cyclone1070/q/internal/operation"
	"github.com/Cyclone1070/q/internal/policy"
	"github.com/Cyclone1070/q/internal/provider/models"
	"github.com/Cyclone1070/q/internal/tool/fetch"
	"github.com/Cyclone1070/q/internal/tool/file"
	"github.com/Cyclone1070/q/internal/tool/helper/content"
	"github.com/Cyclone1070/q/internal/tool/shell"
	"github.com/Cyclone1070/q/internal/workflow"
	"github.com/mitchellh/mapstructure"
)

// modifyChoice is offered when approving shell commands.
var modifyChoice = policy.Choice{Key: "m", Label: "Modify[m]"}

// Tools bundles the executors the router dispatches to.
type Tools struct {
	Shell shellRunner
	Read  fileReader
	Write fileWriter
	Fetch fetcher
}

// Router dispatches operations. It is not safe for concurrent use.
type Router struct {
	approver approver
	asker    asker
	tools    Tools
	events   workflow.Emitter
	logger   *slog.Logger
}

// New creates a Router. events may be nil.
func New(approver approver, asker asker, tools Tools, events workflow.Emitter, logger *slog.Logger) *Router {
	if approver == nil {
		panic("approver is required")
	}
	if asker == nil {
		panic("asker is required")
	}
	if tools.Shell == nil || tools.Read == nil || tools.Write == nil || tools.Fetch == nil {
		panic("all tools are required")
	}
	if events == nil {
		events = workflow.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{approver: approver, asker: asker, tools: tools, events: events, logger: logger}
}

// Execute runs req and reports the outcome. It never returns an error:
// refusals and failures are encoded in the Reply.
func (r *Router) Execute(ctx context.Context, req operation.Request) Reply {
	r.logger.InfoContext(ctx, "executing operation", "kind", req.Kind, "target", req.Target())

	var reply Reply
	switch req.Kind {
	case operation.KindShell:
		reply = r.shell(ctx, req)
	case operation.KindRead:
		reply = r.read(ctx, req)
	case operation.KindWrite:
		reply = r.write(ctx, req)
	case operation.KindFetch:
		reply = r.fetch(ctx, req)
	default:
		r.logger.ErrorContext(ctx, "unknown operation kind", "kind", req.Kind)
		reply = Reply{Summary: "STOP: Unknown operation", Error: fmt.Sprintf("Unknown operation type '%s'", req.Kind), Stop: true}
	}

	r.events.Emit(workflow.OperationEndEvent{
		Kind:    req.Kind,
		Target:  req.Target(),
		Summary: firstLine(reply.Summary),
		Error:   reply.Error,
		Stop:    reply.Stop,
	})
	if reply.Failed() {
		r.logger.WarnContext(ctx, "operation did not complete", "kind", req.Kind, "summary", firstLine(reply.Summary), "error", reply.Error)
	}
	return reply
}

func (r *Router) shell(ctx context.Context, req operation.Request) Reply {
	original := strings.TrimSpace(req.Payload)
	command := original
	reason := ""

	for {
		decision := r.approver.RequestApproval(ctx, policy.Request{Kind: operation.KindShell, Target: command, Custom: &modifyChoice})
		switch decision.Outcome {
		case policy.Approved:
			return r.runShell(ctx, command, original, reason)
		case policy.Denied:
			return stopReply("STOP: Command execution failed", decision.Reason)
		case policy.Cancelled:
			return stopReply("STOP: Command execution cancelled", fmt.Sprintf("Shell operation cancelled by user for command '%s'.", command))
		case policy.Custom:
			modified, why, stop := r.modify(ctx, command)
			if stop != nil {
				return *stop
			}
			if modified != command {
				r.logger.InfoContext(ctx, "command modified by user", "from", command, "to", modified)
				reason = why
			}
			command = modified
		default:
			return stopReply("STOP: Command execution failed", fmt.Sprintf("Unexpected approval status '%s'.", decision.Outcome))
		}
	}
}

// modify asks for a replacement command and, when it differs, a reason.
func (r *Router) modify(ctx context.Context, current string) (string, string, *Reply) {
	input, err := r.asker.Ask(ctx, "Enter modified command:", current)
	if err != nil {
		reply := stopReply("STOP: Command modification cancelled (input EOF)", "Command modification cancelled (input EOF)")
		return "", "", &reply
	}
	modified := strings.TrimSpace(input)
	if modified == "" {
		reply := stopReply("STOP: Command modification cancelled (empty command)", "Command modification cancelled (empty command)")
		return "", "", &reply
	}
	if modified == current {
		return modified, "", nil
	}
	why, err := r.asker.Ask(ctx, "Reason for modification:", "")
	if err != nil {
		why = ""
	}
	why = strings.TrimSpace(why)
	if why == "" {
		r.logger.WarnContext(ctx, "no reason provided for command modification")
	}
	return modified, why, nil
}

func (r *Router) runShell(ctx context.Context, command, original, reason string) Reply {
	r.events.Emit(workflow.OperationStartEvent{Kind: operation.KindShell, Target: command})

	res, err := r.tools.Shell.Run(ctx, command)
	if res != nil && command != original {
		res.ModifiedFrom = original
		res.ModificationReason = reason
	}

	var timeout *shell.TimeoutError
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return stopReply("STOP: Command execution cancelled", fmt.Sprintf("Shell operation cancelled by user for command '%s'.", command))
	case errors.As(err, &timeout) && res != nil:
		return stopReply("STOP: Command execution result:\n"+res.JSON(), timeout.Error())
	case err != nil:
		return stopReply("STOP: Command execution failed", err.Error())
	case !res.Succeeded():
		return stopReply("STOP: Command execution result:\n"+res.JSON(), res.FailureReason())
	default:
		return Reply{Summary: "Command execution result:\n" + res.JSON()}
	}
}

// readArgs holds the optional line range attributes of a read tag.
type readArgs struct {
	From *int `mapstructure:"from"`
	To   *int `mapstructure:"to"`
}

func decodeReadArgs(attrs map[string]string) (readArgs, error) {
	raw := make(map[string]any, 2)
	for _, key := range []string{"from", "to"} {
		if v := strings.TrimSpace(attrs[key]); v != "" {
			raw[key] = v
		}
	}
	var args readArgs
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &args,
	})
	if err != nil {
		return readArgs{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return readArgs{}, err
	}
	return args, nil
}

func (r *Router) read(ctx context.Context, req operation.Request) Reply {
	path := strings.TrimSpace(req.Payload)

	args, err := decodeReadArgs(req.Attributes)
	if err != nil {
		return stopReply("STOP: File read operation failed", fmt.Sprintf("Invalid line range: %v", err))
	}

	decision := r.approver.RequestApproval(ctx, policy.Request{Kind: operation.KindRead, Target: path})
	switch decision.Outcome {
	case policy.Approved:
	case policy.Denied:
		return stopReply("STOP: File read operation failed", decision.Reason)
	case policy.Cancelled:
		return stopReply("STOP: File read operation cancelled", fmt.Sprintf("Read operation cancelled by user for path '%s'.", path))
	default:
		return stopReply("STOP: File read operation failed", fmt.Sprintf("Unexpected approval status '%s'.", decision.Outcome))
	}

	r.events.Emit(workflow.OperationStartEvent{Kind: operation.KindRead, Target: path})
	readReq := &file.ReadRequest{Path: path, From: args.From, To: args.To}
	resp, err := r.tools.Read.Run(ctx, readReq)
	if err != nil {
		return readFailure(path, err)
	}

	if !resp.IsText() {
		return Reply{
			Summary: fmt.Sprintf("Here is the content of %s:", path),
			Attachment: &models.Attachment{
				MimeType: resp.MimeType,
				Content:  resp.Content,
				Encoding: resp.Encoding,
			},
		}
	}
	summary := fmt.Sprintf("Here is the content of %s:", path)
	if resp.Ranged {
		summary = fmt.Sprintf("Here is the partial content of %s%s:", path, readReq.RangeLabel())
	}
	return Reply{Summary: summary, Content: resp.Content}
}

func readFailure(path string, err error) Reply {
	var notFound *file.NotFoundError
	var unsupported *file.UnsupportedTypeError
	switch {
	case errors.As(err, &notFound):
		msg := notFound.Error()
		return Reply{Summary: msg, Error: msg}
	case errors.Is(err, file.ErrNotUTF8):
		return stopReply("STOP: Error decoding text file with UTF-8 encoding", "Error decoding text file with UTF-8 encoding")
	case errors.As(err, &unsupported):
		msg := unsupported.Error()
		return stopReply("STOP: "+msg, msg)
	case errors.Is(err, file.ErrPathRequired):
		return Reply{Summary: "File read operation failed", Error: "No path specified for read operation."}
	default:
		msg := sentence(err.Error())
		return stopReply("STOP: "+msg, msg)
	}
}

func (r *Router) write(ctx context.Context, req operation.Request) Reply {
	path := strings.TrimSpace(req.Attr("path"))
	if path == "" {
		return Reply{Summary: "Write operation failed", Error: "No path specified for write operation."}
	}
	body := content.NormalizeWriteContent(req.Payload)

	decision := r.approver.RequestApproval(ctx, policy.Request{Kind: operation.KindWrite, Target: path, Body: body})
	switch decision.Outcome {
	case policy.Approved:
	case policy.Denied:
		return stopReply("STOP: Write operation failed", decision.Reason)
	case policy.Cancelled:
		return stopReply("STOP: Write operation cancelled", fmt.Sprintf("Write operation cancelled by user for path '%s'.", path))
	default:
		return stopReply("STOP: Write operation failed", fmt.Sprintf("Unexpected approval status '%s'.", decision.Outcome))
	}

	r.events.Emit(workflow.OperationStartEvent{Kind: operation.KindWrite, Target: path})
	resp, err := r.tools.Write.Run(ctx, &file.WriteRequest{Path: path, Content: body})
	if err != nil {
		return Reply{Summary: "Write operation failed", Error: fmt.Sprintf("An unexpected error occurred: %v", err)}
	}
	return Reply{Summary: fmt.Sprintf("Successfully %s file: %s", resp.Verb(), path)}
}

func (r *Router) fetch(ctx context.Context, req operation.Request) Reply {
	url := strings.TrimSpace(req.Payload)

	decision := r.approver.RequestApproval(ctx, policy.Request{Kind: operation.KindFetch, Target: url})
	switch decision.Outcome {
	case policy.Approved:
	case policy.Denied:
		return stopReply("STOP: URL fetch operation failed", decision.Reason)
	case policy.Cancelled:
		return stopReply("STOP: URL fetch operation cancelled", fmt.Sprintf("Fetch operation cancelled by user for URL '%s'.", url))
	default:
		return stopReply("STOP: URL fetch operation failed", fmt.Sprintf("Unexpected approval status '%s'.", decision.Outcome))
	}

	r.events.Emit(workflow.OperationStartEvent{Kind: operation.KindFetch, Target: url})
	resp, err := r.tools.Fetch.Run(ctx, url)
	if err != nil {
		var jsonErr *fetch.JSONError
		if errors.As(err, &jsonErr) {
			return stopReply("STOP: "+jsonErr.Error(), jsonErr.Error())
		}
		if errors.Is(err, context.Canceled) {
			return stopReply("STOP: URL fetch operation cancelled", fmt.Sprintf("Fetch operation cancelled by user for URL '%s'.", url))
		}
		return stopReply(fmt.Sprintf("STOP: Failed to fetch URL: %s", url), err.Error())
	}

	mime := content.MIMEPlain
	if resp.IsJSON() {
		mime = content.MIMEJSON
	}
	body := resp.Text()
	if resp.Truncated {
		body += "\n\n[content truncated]"
	}
	return Reply{
		Summary:    fmt.Sprintf("Here is the content from %s:", url),
		Attachment: &models.Attachment{MimeType: mime, Content: body},
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSuffix(line, ":")
}

// sentence capitalizes the first letter of msg.
func sentence(msg string) string {
	r, size := utf8.DecodeRuneInString(msg)
	if r == utf8.RuneError {
		return msg
	}
	return string(unicode.ToUpper(r)) + msg[size:]
}
