package coordinator

// The per-task attempt loop is a three-state machine. Keeping the
// transition pure makes the retry bound checkable in isolation from the
// roles.

type phase int

const (
	phaseAttempting phase = iota
	phaseSucceeded
	phaseExhausted
)

type taskState struct {
	phase   phase
	attempt int
}

func newTaskState() taskState {
	return taskState{phase: phaseAttempting, attempt: 1}
}

// advance consumes one attempt outcome. Terminal states absorb.
func (s taskState) advance(approved bool, maxRetries int) taskState {
	if s.phase != phaseAttempting {
		return s
	}
	if approved {
		return taskState{phase: phaseSucceeded, attempt: s.attempt}
	}
	if s.attempt >= maxRetries {
		return taskState{phase: phaseExhausted, attempt: s.attempt}
	}
	return taskState{phase: phaseAttempting, attempt: s.attempt + 1}
}
