package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrInvalidCiphertext  = errors.New("invalid ciphertext")
	ErrFileProcessing     = errors.New("uploaded file failed to process")
	ErrEmptyResponse      = errors.New("empty response from model")
	ErrDownloadTooLarge   = errors.New("file exceeds download limit")
)

// ErrorKind classifies failures of the generative backend.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindTransient
	KindSafety
	KindQuota
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindSafety:
		return "safety"
	case KindQuota:
		return "quota"
	default:
		return "other"
	}
}

// GenerationError wraps a backend failure with its kind.
type GenerationError struct {
	Kind ErrorKind
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a generation error, or KindOther.
func KindOf(err error) ErrorKind {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	return KindOther
}
