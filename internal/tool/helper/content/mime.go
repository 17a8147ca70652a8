package content

import (
	"mime"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
)

const (
	MIMEPlain    = "text/plain"
	MIMEMarkdown = "text/markdown"
	MIMEPDF      = "application/pdf"
	MIMEJSON     = "application/json"
	MIMEOctet    = "application/octet-stream"
)

// textMIMETypes are non text/* types that are still read as text.
var textMIMETypes = []string{
	"application/json",
	"application/xml",
	"application/javascript",
	"application/x-javascript",
	"application/x-python",
	"application/x-sh",
	"application/x-yaml",
	"application/yaml",
	"application/toml",
	"application/x-perl",
	"application/x-ruby",
	"application/x-php",
	"application/csv",
	"application/x-tex",
	"application/x-shellscript",
	"application/x-troff-man",
	"application/x-msdos-program",
	"application/xhtml+xml",
	"application/sql",
}

// DetectMIME classifies a file from its name and leading bytes. Images and
// PDFs are recognized by content; otherwise the extension wins, then the
// content sniff.
func DetectMIME(name string, head []byte) string {
	sniffed := baseType(http.DetectContentType(head))
	if IsImageMIME(sniffed) || sniffed == MIMEPDF {
		return sniffed
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
		return baseType(byExt)
	}
	if sniffed == MIMEPlain && LooksBinary(head) {
		return MIMEOctet
	}
	return sniffed
}

// IsTextMIME reports whether files of this type are returned as text.
func IsTextMIME(t string) bool {
	t = baseType(t)
	return strings.HasPrefix(t, "text/") || slices.Contains(textMIMETypes, t)
}

// IsImageMIME reports whether t is an image type.
func IsImageMIME(t string) bool {
	return strings.HasPrefix(baseType(t), "image/")
}

// IsJSONMIME reports whether t carries JSON, including +json suffix types.
func IsJSONMIME(t string) bool {
	t = baseType(t)
	return t == MIMEJSON || strings.HasSuffix(t, "+json")
}

func baseType(t string) string {
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(t))
}
