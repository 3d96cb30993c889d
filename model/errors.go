package model

import "errors"

// Sentinel kinds for mapping errors.
var (
	ErrNotMapping  = errors.New("handler output is not a mapping")
	ErrNotSequence = errors.New("handler output is not a sequence of mappings")
	ErrDecode      = errors.New("model decode failed")
	ErrEncode      = errors.New("model encode failed")
)
