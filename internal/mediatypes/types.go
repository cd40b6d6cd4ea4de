package mediatypes

import (
	"mime"
	"strings"
)

// Format describes one side of a conversion.
type Format struct {
	// MimeType is the IANA media type, e.g. "video/webm".
	MimeType string
	// Extension includes the leading dot, e.g. ".webm".
	Extension string
}

var (
	// Input is the only format accepted for upload.
	Input = Format{MimeType: "video/webm", Extension: ".webm"}

	// Output is the format every conversion produces.
	Output = Format{MimeType: "video/mp4", Extension: ".mp4"}
)

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	".webm": "video/webm",
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mkv":  "video/x-matroska",
	".mov":  "video/quicktime",
}

// BaseType returns the lowercased media type without parameters. An
// unparseable value yields "".
func BaseType(contentType string) string {
	if strings.TrimSpace(contentType) == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(mediaType)
}

// IsAccepted reports whether a declared upload content type matches Input.
func IsAccepted(contentType string) bool {
	return BaseType(contentType) == Input.MimeType
}

// GetMimeType returns the MIME type for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".mp4").
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if m, ok := MimeTypes[ext]; ok {
		return m
	}
	return "application/octet-stream"
}
