package guard

import "errors"

var ErrGuardNotFound = errors.New("guard not found")
