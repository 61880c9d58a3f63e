package model

import "errors"

// Fatal errors. Only these two abort a whole ProcessRequest call; every other
// failure is absorbed by the retry loop or recorded in a TaskResult.
var (
	// ErrInvalidRequest reports an empty or whitespace-only request.
	ErrInvalidRequest = errors.New("invalid request: empty or whitespace-only")

	// ErrPlanningFailure reports that planning produced zero usable tasks.
	ErrPlanningFailure = errors.New("planning produced no usable tasks")
)
