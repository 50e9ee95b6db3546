package catalog

import "errors"

var (
	ErrNotFound      = errors.New("catalog: not found")
	ErrDuplicateSlug = errors.New("catalog: duplicate slug")
	ErrDuplicateLink = errors.New("catalog: duplicate link")
	ErrInvalidInput  = errors.New("catalog: invalid input")
)
