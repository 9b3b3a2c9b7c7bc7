package legalparams

import "errors"

var (
	ErrParameterNotFound = errors.New("no legal parameter snapshot covers the requested date or version")
	ErrUnknownAFPCode    = errors.New("afp provider code not present in snapshot")
	ErrUnknownContract   = errors.New("contract type has no afc rate in snapshot")
)
