package toolmanager

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Cyclone1070/q/internal/operation"
	"github.com/Cyclone1070/q/internal/provider/models"
)

var errWrongInput = errors.New("unexpected input type")

// ShellInput is the argument set of the shell tool.
type ShellInput struct {
	Command string `mapstructure:"command"`
}

// ReadInput is the argument set of the read_file tool.
type ReadInput struct {
	Path string `mapstructure:"path"`
	From *int   `mapstructure:"from"`
	To   *int   `mapstructure:"to"`
}

// WriteInput is the argument set of the write_file tool.
type WriteInput struct {
	Path    string `mapstructure:"path"`
	Content string `mapstructure:"content"`
}

// FetchInput is the argument set of the fetch_url tool.
type FetchInput struct {
	URL string `mapstructure:"url"`
}

type shellTool struct{}

func (shellTool) Name() string { return "shell" }
func (shellTool) Input() any   { return &ShellInput{} }
func (shellTool) Declaration() models.ToolDefinition {
	return models.ToolDefinition{
		Name:        "shell",
		Description: "Run a command with sh -c in the working directory. Returns stdout, stderr and exit code as JSON.",
		Parameters: &models.ParameterSchema{
			Type: "object",
			Properties: map[string]models.PropertySchema{
				"command": {Type: "string", Description: "The command line to run"},
			},
			Required: []string{"command"},
		},
	}
}
func (shellTool) Request(input any) (operation.Request, error) {
	in, ok := input.(*ShellInput)
	if !ok {
		return operation.Request{}, errWrongInput
	}
	if strings.TrimSpace(in.Command) == "" {
		return operation.Request{}, errors.New("command is required")
	}
	return operation.Request{Kind: operation.KindShell, Payload: in.Command}, nil
}

type readTool struct{}

func (readTool) Name() string { return "read_file" }
func (readTool) Input() any   { return &ReadInput{} }
func (readTool) Declaration() models.ToolDefinition {
	return models.ToolDefinition{
		Name:        "read_file",
		Description: "Read a text file, image or PDF. Optional from/to select a 1-indexed inclusive line range of text files.",
		Parameters: &models.ParameterSchema{
			Type: "object",
			Properties: map[string]models.PropertySchema{
				"path": {Type: "string", Description: "Path of the file to read"},
				"from": {Type: "integer", Description: "First line to return"},
				"to":   {Type: "integer", Description: "Last line to return"},
			},
			Required: []string{"path"},
		},
	}
}
func (readTool) Request(input any) (operation.Request, error) {
	in, ok := input.(*ReadInput)
	if !ok {
		return operation.Request{}, errWrongInput
	}
	if strings.TrimSpace(in.Path) == "" {
		return operation.Request{}, errors.New("path is required")
	}
	attrs := map[string]string{}
	if in.From != nil {
		attrs["from"] = strconv.Itoa(*in.From)
	}
	if in.To != nil {
		attrs["to"] = strconv.Itoa(*in.To)
	}
	return operation.Request{Kind: operation.KindRead, Attributes: attrs, Payload: in.Path}, nil
}

type writeTool struct{}

func (writeTool) Name() string { return "write_file" }
func (writeTool) Input() any   { return &WriteInput{} }
func (writeTool) Declaration() models.ToolDefinition {
	return models.ToolDefinition{
		Name:        "write_file",
		Description: "Create or replace a file with the given content. Parent directories are created.",
		Parameters: &models.ParameterSchema{
			Type: "object",
			Properties: map[string]models.PropertySchema{
				"path":    {Type: "string", Description: "Path of the file to write"},
				"content": {Type: "string", Description: "Complete new file content"},
			},
			Required: []string{"path", "content"},
		},
	}
}
func (writeTool) Request(input any) (operation.Request, error) {
	in, ok := input.(*WriteInput)
	if !ok {
		return operation.Request{}, errWrongInput
	}
	return operation.Request{Kind: operation.KindWrite, Attributes: map[string]string{"path": in.Path}, Payload: in.Content}, nil
}

type fetchTool struct{}

func (fetchTool) Name() string { return "fetch_url" }
func (fetchTool) Input() any   { return &FetchInput{} }
func (fetchTool) Declaration() models.ToolDefinition {
	return models.ToolDefinition{
		Name:        "fetch_url",
		Description: "HTTP GET a URL. JSON responses are returned decoded, anything else as text.",
		Parameters: &models.ParameterSchema{
			Type: "object",
			Properties: map[string]models.PropertySchema{
				"url": {Type: "string", Description: "http or https URL"},
			},
			Required: []string{"url"},
		},
	}
}
func (fetchTool) Request(input any) (operation.Request, error) {
	in, ok := input.(*FetchInput)
	if !ok {
		return operation.Request{}, errWrongInput
	}
	if strings.TrimSpace(in.URL) == "" {
		return operation.Request{}, fmt.Errorf("url is required")
	}
	return operation.Request{Kind: operation.KindFetch, Payload: in.URL}, nil
}

// BuiltinTools returns the native counterparts of the four operations.
func BuiltinTools() []toolImpl {
	return []toolImpl{shellTool{}, readTool{}, writeTool{}, fetchTool{}}
}
