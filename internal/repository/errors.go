package repository

import "errors"

// ErrUnsupportedDriver is returned when the configured database dialect is
// neither mysql nor postgres.
var ErrUnsupportedDriver = errors.New("unsupported database driver")
