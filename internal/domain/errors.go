package domain

import "errors"

var (
	ErrNotFound  = errors.New("not found")
	ErrNoLocales = errors.New("enter at least one country code")
)
