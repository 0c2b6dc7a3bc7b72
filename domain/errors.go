package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrUnknownAction = errors.New("unknown action")
	ErrUnknownEffect = errors.New("unknown effect")
)
