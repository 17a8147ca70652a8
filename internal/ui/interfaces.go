package ui

// lineReader reads one edited line from the terminal.
type lineReader interface {
	SetPrompt(prompt string)
	Readline() (string, error)
	SaveHistory(line string) error
}

// activity shows that the agent is busy. Start replaces the message of a
// running indicator; Stop clears it and is a no-op when nothing runs.
type activity interface {
	Start(message string)
	Stop()
}
