package views

import (
	"strings"

	"github.com/Cyclone1070/q/internal/policy"
	"github.com/Cyclone1070/q/internal/workflow"
)

// RenderNotice renders a policy notice. Notices with a title are boxed;
// bare notices are a single colored line.
func RenderNotice(s Styles, n policy.Notice, width int) string {
	body := strings.TrimRight(n.Body, "\n")

	if n.Title == "" {
		switch n.Level {
		case policy.NoticeDanger:
			return s.Error.Render(body)
		case policy.NoticeWarning:
			return s.Warning.Render(body)
		default:
			return body
		}
	}

	box := s.InfoBox
	switch n.Level {
	case policy.NoticeWarning:
		box = s.WarningBox
	case policy.NoticeDanger:
		box = s.DangerBox
	}
	if width > 0 {
		box = box.MaxWidth(width)
	}

	content := s.NoticeTitle.Render(n.Title)
	if body != "" {
		content += "\n" + body
	}
	return box.Render(content)
}

// RenderLoopNotice renders a notice raised by the agent loop.
func RenderLoopNotice(s Styles, level workflow.NoticeLevel, text string) string {
	switch level {
	case workflow.NoticeError:
		return s.Error.Render("Error: ") + text
	case workflow.NoticeWarning:
		return s.Warning.Render(text)
	default:
		return s.Dim.Render(text)
	}
}
