package repository

import "errors"

// Sentinel errors distinguishing invariant violations from persistence faults.
var (
	// ErrDuplicate signals a unique-constraint hit (username, enrollment pair).
	ErrDuplicate = errors.New("duplicate row")
	// ErrSlotTaken signals a weekday/start/end collision for a teacher or student.
	ErrSlotTaken = errors.New("time slot already taken")
)
