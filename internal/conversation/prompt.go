package conversation

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
)

//go:embed prompt.tmpl
var promptTemplate string

var systemPrompt = template.Must(template.New("system").Parse(promptTemplate))

// PromptData fills the system prompt template.
type PromptData struct {
	Namespace   string
	Marker      string
	Model       string
	Cwd         string
	OS          string
	Shell       string
	User        string
	Date        string
	NativeTools bool

	UserContext    string
	ProjectContext string
	ProjectFiles   []string
}

// RenderSystemPrompt executes the embedded template with data.
func RenderSystemPrompt(data PromptData) (string, error) {
	var buf bytes.Buffer
	if err := systemPrompt.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render system prompt: %w", err)
	}
	return buf.String(), nil
}
