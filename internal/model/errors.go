package model

import "github.com/rotisserie/eris"

// Caller-input errors. These are the only failures public operations surface;
// source and enhancement trouble degrades output instead of erroring.
var (
	ErrInvalidIdentifier = eris.New("invalid identifier")
	ErrNotFound          = eris.New("not found")
	ErrInvalidState      = eris.New("invalid state")
)
