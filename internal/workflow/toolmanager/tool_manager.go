// Package toolmanager exposes the operations as native tool calls. Every
// call is converted to an operation and goes through the same router, so
// policy applies exactly as for tagged operations.
package toolmanager

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Cyclone1070/q/internal/provider/models"
	"github.com/mitchellh/mapstructure"
)

type ToolManager struct {
	registry map[string]toolImpl
	runner   operationRunner
	logger   *slog.Logger
}

func NewToolManager(runner operationRunner, logger *slog.Logger, tools ...toolImpl) *ToolManager {
	if runner == nil {
		panic("runner is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	tm := &ToolManager{
		registry: make(map[string]toolImpl),
		runner:   runner,
		logger:   logger,
	}
	for _, t := range tools {
		tm.Register(t)
	}
	return tm
}

func (m *ToolManager) Register(t toolImpl) {
	m.registry[t.Name()] = t
}

func (m *ToolManager) Declarations() []models.ToolDefinition {
	decls := make([]models.ToolDefinition, 0, len(m.registry))
	for _, t := range m.registry {
		decls = append(decls, t.Declaration())
	}
	sort.Slice(decls, func(i, j int) bool {
		return decls[i].Name < decls[j].Name
	})
	return decls
}

// Execute runs one tool call. Unknown tools and bad arguments come back as
// error results so the model can correct itself.
func (m *ToolManager) Execute(ctx context.Context, tc models.ToolCall) models.ToolResult {
	result := models.ToolResult{ID: tc.ID, Name: tc.Name}

	t, ok := m.registry[tc.Name]
	if !ok {
		declsJSON, _ := json.MarshalIndent(m.Declarations(), "", "  ")
		m.logger.WarnContext(ctx, "unknown tool requested", "tool", tc.Name)
		result.Error = fmt.Sprintf("tool %q does not exist.\n\nAvailable tools:\n%s", tc.Name, declsJSON)
		return result
	}

	input := t.Input()
	if err := decodeArgs(tc.Args, input); err != nil {
		result.Error = m.invalidArgs(t, err)
		return result
	}
	req, err := t.Request(input)
	if err != nil {
		result.Error = m.invalidArgs(t, err)
		return result
	}

	reply := m.runner.Execute(ctx, req)
	result.Content = reply.Text()
	if reply.Attachment != nil {
		if reply.Attachment.Encoding == "" {
			result.Content += "\n\n" + reply.Attachment.Content
		} else {
			result.Content += fmt.Sprintf("\n\n[%s content cannot be returned through a tool call; use an operation tag to read it]", reply.Attachment.MimeType)
		}
	}
	if reply.Stop {
		result.Error = reply.Error
	}
	return result
}

func (m *ToolManager) invalidArgs(t toolImpl, err error) string {
	declJSON, _ := json.MarshalIndent(t.Declaration(), "", "  ")
	m.logger.Warn("invalid tool arguments", "tool", t.Name(), "error", err)
	return fmt.Sprintf("invalid arguments for tool %q: %v\n\nExpected schema:\n%s", t.Name(), err, declJSON)
}

func decodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(args)
}
