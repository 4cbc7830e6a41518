package resources

import (
	"mime"
	"path/filepath"
	"strings"
)

// The extensions the upload forms actually accept. The system mime database
// is consulted only for anything outside this set, its contents vary between
// hosts.
var videoMediaTypes = map[string]string{
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
}

func detectVideoMediaType(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if mediaType, ok := videoMediaTypes[ext]; ok {
		return mediaType
	}
	if mediaType := mime.TypeByExtension(ext); mediaType != "" {
		return mediaType
	}
	return "application/octet-stream"
}
