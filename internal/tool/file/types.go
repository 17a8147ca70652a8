package file

import "fmt"

// -- Read File --

// ReadRequest names a file and an optional 1-indexed inclusive line range.
type ReadRequest struct {
	Path string
	From *int
	To   *int
}

// Partial reports whether a line range was requested.
func (r *ReadRequest) Partial() bool {
	return r.From != nil || r.To != nil
}

// RangeLabel describes the requested range, e.g. " (lines 2-5)".
func (r *ReadRequest) RangeLabel() string {
	switch {
	case r.From != nil && r.To != nil:
		return fmt.Sprintf(" (lines %d-%d)", *r.From, *r.To)
	case r.From != nil:
		return fmt.Sprintf(" (from line %d)", *r.From)
	case r.To != nil:
		return fmt.Sprintf(" (up to line %d)", *r.To)
	default:
		return ""
	}
}

func (r *ReadRequest) Validate() error {
	if r.Path == "" {
		return ErrPathRequired
	}
	if r.From != nil && r.To != nil && *r.To < *r.From {
		return fmt.Errorf("%w: to (%d) is before from (%d)", ErrInvalidRange, *r.To, *r.From)
	}
	return nil
}

// Encoding of attachment content.
const (
	EncodingNone   = ""
	EncodingBase64 = "base64"
)

// ReadResponse carries file content ready to attach to a model message.
type ReadResponse struct {
	AbsolutePath string
	MimeType     string
	Content      string
	Encoding     string
	// Ranged is true when only part of a text file was returned.
	Ranged bool
}

// IsText reports content that can be shown inline.
func (r *ReadResponse) IsText() bool {
	return r.Encoding == EncodingNone
}

// -- Write File --

type WriteRequest struct {
	Path    string
	Content string
}

func (r *WriteRequest) Validate(maxFileSize int64) error {
	if r.Path == "" {
		return ErrPathRequired
	}
	if int64(len(r.Content)) > maxFileSize {
		return fmt.Errorf("%w: size %d, limit %d", ErrFileTooLarge, len(r.Content), maxFileSize)
	}
	return nil
}

type WriteResponse struct {
	AbsolutePath string
	Created      bool
	BytesWritten int
}

// Verb is "created" or "updated".
func (r *WriteResponse) Verb() string {
	if r.Created {
		return "created"
	}
	return "updated"
}
