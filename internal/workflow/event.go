// Package workflow holds the events the agent loop reports to the console.
package workflow

import "github.com/Cyclone1070/q/internal/operation"

// Event is the interface for all workflow events.
// UI handles events via type switch.
type Event interface {
	isEvent()
}

// Emitter receives events in order. Emit returns after the event has been
// handled, so output and approval prompts never interleave.
type Emitter interface {
	Emit(Event)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(Event)

func (f EmitterFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Emitter = EmitterFunc(func(Event) {})

// ThinkingEvent is emitted before waiting on the model.
type ThinkingEvent struct{}

func (ThinkingEvent) isEvent() {}

// TextEvent is emitted with the model's reply, operation tag removed.
type TextEvent struct {
	Text string
}

func (TextEvent) isEvent() {}

// NoticeLevel sets how a notice is rendered.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarning
	NoticeError
)

// NoticeEvent is a one-line message from the loop itself, such as a parse
// error or the recovered-tag note.
type NoticeEvent struct {
	Level NoticeLevel
	Text  string
}

func (NoticeEvent) isEvent() {}

// OperationStartEvent is emitted when an approved operation begins.
type OperationStartEvent struct {
	Kind   operation.Kind
	Target string
}

func (OperationStartEvent) isEvent() {}

// OperationEndEvent is emitted when an operation finishes, whether it ran,
// was refused or failed.
type OperationEndEvent struct {
	Kind    operation.Kind
	Target  string
	Summary string
	Error   string
	Stop    bool
}

func (OperationEndEvent) isEvent() {}

// DoneEvent is emitted when a turn completes.
type DoneEvent struct {
	TurnID string
}

func (DoneEvent) isEvent() {}
