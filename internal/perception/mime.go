package perception

import (
	"path/filepath"
	"strings"
)

// OctetStream is the fallback MIME type for unrecognized extensions.
const OctetStream = "application/octet-stream"

// mimeTypes covers the multimedia formats the Gemini Files API accepts.
var mimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".mp4":  "video/mp4",
	".mpeg": "video/mpeg",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".webm": "video/webm",
	".mp3":  "audio/mp3",
	".wav":  "audio/wav",
	".aiff": "audio/aiff",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
}

// DetectMIME resolves a MIME type from the file extension, falling back
// to application/octet-stream.
func DetectMIME(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mime, ok := mimeTypes[ext]; ok {
		return mime
	}
	return OctetStream
}

// KindLabel returns a display label ("Image", "Video", ...) for a MIME
// type.
func KindLabel(mimeType string) string {
	kind, _, found := strings.Cut(mimeType, "/")
	if !found || kind == "" {
		return "File"
	}
	return strings.ToUpper(kind[:1]) + kind[1:]
}
