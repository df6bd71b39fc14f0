package domain

import "errors"

var (
	ErrCommandNotFound   = errors.New("command not found")
	ErrDuplicateName     = errors.New("name already registered")
	ErrNotRegistered     = errors.New("name not registered")
	ErrMalformedRecord   = errors.New("malformed state record")
	ErrAudioNotSupported = errors.New("audio is not supported on this platform")
	ErrNotPlayable       = errors.New("result is not playable media")
)
