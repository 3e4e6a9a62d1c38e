package dal

import (
	"errors"
)

var (
	ErrNotFound = errors.New("not found")
	ErrRevoked  = errors.New("certificate is revoked")

	ErrCorruptSequence = errors.New("certificate sequence counter is not an integer")
)
