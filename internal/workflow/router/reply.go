package router

import (
	"strings"

	"github.com/Cyclone1070/q/internal/provider/models"
)

// Reply is what the model is told about an executed, refused or failed
// operation.
type Reply struct {
	// Summary is the first line the model sees, e.g. "Successfully created
	// file: a.txt" or "STOP: Command execution cancelled".
	Summary string
	// Content is inline text following the summary.
	Content string
	// Attachment is sent alongside the message instead of inline.
	Attachment *models.Attachment
	// Error explains a failure.
	Error string
	// Stop tells the model not to retry the same operation.
	Stop bool
}

// Text renders the reply as a single message.
func (r Reply) Text() string {
	var b strings.Builder
	b.WriteString(r.Summary)
	if r.Content != "" {
		b.WriteString("\n\n")
		b.WriteString(r.Content)
	}
	if r.Error != "" {
		b.WriteString("\n\nError: ")
		b.WriteString(r.Error)
	}
	return b.String()
}

// Failed reports whether the operation did not complete.
func (r Reply) Failed() bool {
	return r.Error != ""
}

func stopReply(summary, err string) Reply {
	return Reply{Summary: summary, Error: err, Stop: true}
}
