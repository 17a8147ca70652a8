package content

import "bytes"

// SniffLen is how much of a file or stream is scanned for NUL bytes.
const SniffLen = 8000

// UTF-16 and UTF-32 text is full of NULs; a leading BOM marks it as text.
var textBOMs = [][]byte{
	{0xFF, 0xFE, 0x00, 0x00},
	{0x00, 0x00, 0xFE, 0xFF},
	{0xFF, 0xFE},
	{0xFE, 0xFF},
}

// LooksBinary reports whether head has a NUL byte within its first SniffLen
// bytes and does not start with a UTF-16 or UTF-32 byte order mark.
func LooksBinary(head []byte) bool {
	for _, bom := range textBOMs {
		if bytes.HasPrefix(head, bom) {
			return false
		}
	}
	return bytes.IndexByte(head[:min(len(head), SniffLen)], 0) >= 0
}
