package domain

// MediaKind is the type of file a user can ask the assistant to analyze.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaAudio MediaKind = "audio"
	MediaPDF   MediaKind = "pdf"
	MediaVideo MediaKind = "video"
)

// MediaKinds lists every supported kind in menu order.
var MediaKinds = []MediaKind{MediaImage, MediaAudio, MediaPDF, MediaVideo}

// PendingMedia references a received file waiting for the user's description.
type PendingMedia struct {
	Kind    MediaKind
	FileURL string
}

// MediaInput is a downloaded file handed to the generative backend.
type MediaInput struct {
	Kind     MediaKind
	MIMEType string
	Data     []byte
}

// DefaultPrompt is used when the user's description is empty.
func (k MediaKind) DefaultPrompt() string {
	switch k {
	case MediaImage:
		return "Describe this image in detail."
	case MediaAudio:
		return "Transcribe and summarize this audio."
	case MediaPDF:
		return "Summarize this document."
	case MediaVideo:
		return "Describe what happens in this video."
	default:
		return "Describe this file."
	}
}
