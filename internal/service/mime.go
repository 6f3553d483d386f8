package service

import (
	"net/url"
	"path"
	"strings"
)

const defaultMIMEType = "application/octet-stream"

var mimeByExtension = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
	".heif": "image/heif",
	".wav":  "audio/wav",
	".mp3":  "audio/mp3",
	".aiff": "audio/aiff",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".flac": "audio/flac",
	".pdf":  "application/pdf",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".avi":  "video/avi",
	".mov":  "video/quicktime",
}

// ClassifyMIME maps a file URL to a MIME type by its extension.
func ClassifyMIME(fileURL string) string {
	p := fileURL
	if u, err := url.Parse(fileURL); err == nil && u.Path != "" {
		p = u.Path
	}
	if mimeType, ok := mimeByExtension[strings.ToLower(path.Ext(p))]; ok {
		return mimeType
	}
	return defaultMIMEType
}
