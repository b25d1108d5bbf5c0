package model

import "errors"

// ErrConnectionNotFound is returned when a connection record does not exist.
var ErrConnectionNotFound = errors.New("connection not found")
