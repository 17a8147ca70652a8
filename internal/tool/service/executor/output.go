package executor

import (
	"bytes"

	"github.com/Cyclone1070/q/internal/tool/helper/content"
)

// binaryPlaceholder stands in for a stream whose head contained a NUL byte.
const binaryPlaceholder = "[Binary Content]"

// cappedOutput keeps the first limit bytes of one process stream. Write
// always reports the whole chunk as consumed so the child never sees a
// short write.
type cappedOutput struct {
	buf     bytes.Buffer
	limit   int
	sniffed int
	binary  bool
	dropped bool
}

func newCappedOutput(limit int) *cappedOutput {
	return &cappedOutput{limit: limit}
}

func (o *cappedOutput) Write(p []byte) (int, error) {
	n := len(p)
	if o.binary {
		return n, nil
	}

	if o.sniffed < content.SniffLen {
		head := p[:min(len(p), content.SniffLen-o.sniffed)]
		o.sniffed += len(head)
		if content.LooksBinary(head) {
			o.binary, o.dropped = true, true
			o.buf.Reset()
			return n, nil
		}
	}

	if room := o.limit - o.buf.Len(); len(p) > room {
		p = p[:max(room, 0)]
		o.dropped = true
	}
	o.buf.Write(p)
	return n, nil
}

// String returns the kept output, or a placeholder for binary streams.
func (o *cappedOutput) String() string {
	if o.binary {
		return binaryPlaceholder
	}
	return o.buf.String()
}

// Truncated reports whether any output was dropped.
func (o *cappedOutput) Truncated() bool {
	return o.dropped
}
