package exception

import "errors"

// General errors
var (
	ErrNilInstance      = errors.New("nil instance")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrEmptyAddress     = errors.New("empty address")
	ErrEmptySegmentName = errors.New("empty segment name")
)
