package testutil

import "errors"

// ErrSimulated stands in for a failing snapshot source or codec tool.
var ErrSimulated = errors.New("simulated error for testing")
