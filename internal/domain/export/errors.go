package export

import "errors"

var ErrUnknownKind = errors.New("unknown export kind")
