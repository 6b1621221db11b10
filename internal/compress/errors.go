package compress

import "errors"

var (
	ErrDecode  = errors.New("image decode failed")
	ErrEncode  = errors.New("image encode failed")
	ErrOptions = errors.New("invalid compression options")
)
