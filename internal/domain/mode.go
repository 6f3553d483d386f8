package domain

import "fmt"

// ModeKind enumerates the conversation modes a chat can be in.
type ModeKind int

const (
	ModeIdle ModeKind = iota
	ModeAwaitingCredential
	ModeActiveChat
	ModeAwaitingImage
	ModeAwaitingAudio
	ModeAwaitingPDF
	ModeAwaitingVideo
	ModeAwaitingDescription
)

var modeNames = map[ModeKind]string{
	ModeIdle:                "idle",
	ModeAwaitingCredential:  "awaiting_credential",
	ModeActiveChat:          "active_chat",
	ModeAwaitingImage:       "awaiting_image",
	ModeAwaitingAudio:       "awaiting_audio",
	ModeAwaitingPDF:         "awaiting_pdf",
	ModeAwaitingVideo:       "awaiting_video",
	ModeAwaitingDescription: "awaiting_description",
}

func (k ModeKind) String() string {
	if name, ok := modeNames[k]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(k))
}

// Mode is the single active state of one chat. Media is only set for
// ModeAwaitingDescription.
type Mode struct {
	Kind  ModeKind
	Media *PendingMedia
}

var (
	Idle               = Mode{Kind: ModeIdle}
	AwaitingCredential = Mode{Kind: ModeAwaitingCredential}
	ActiveChat         = Mode{Kind: ModeActiveChat}
)

// AwaitingUpload returns the mode that waits for a file of the given kind.
func AwaitingUpload(kind MediaKind) Mode {
	switch kind {
	case MediaImage:
		return Mode{Kind: ModeAwaitingImage}
	case MediaAudio:
		return Mode{Kind: ModeAwaitingAudio}
	case MediaPDF:
		return Mode{Kind: ModeAwaitingPDF}
	case MediaVideo:
		return Mode{Kind: ModeAwaitingVideo}
	default:
		return Idle
	}
}

// AwaitingDescription returns the mode holding a received file.
func AwaitingDescription(kind MediaKind, fileURL string) Mode {
	return Mode{
		Kind:  ModeAwaitingDescription,
		Media: &PendingMedia{Kind: kind, FileURL: fileURL},
	}
}

// AwaitsUpload reports whether the mode is waiting for a file of the given kind.
func (m Mode) AwaitsUpload(kind MediaKind) bool {
	return m.Kind != ModeIdle && m == AwaitingUpload(kind)
}

func (m Mode) String() string {
	if m.Kind == ModeAwaitingDescription && m.Media != nil {
		return fmt.Sprintf("%s(%s)", m.Kind, m.Media.Kind)
	}
	return m.Kind.String()
}
