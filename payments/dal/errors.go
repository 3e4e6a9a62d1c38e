package dal

import (
	"errors"
)

var (
	ErrNotFound      = errors.New("payment intent not found")
	ErrAlreadyExists = errors.New("payment intent already exists")
)
