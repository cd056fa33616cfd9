package domain

// transitions is the delivery status graph:
//
//	PENDING -> SENT | CANCELLED | FAILED
//	FAILED  -> PENDING (retry claim) | SENT
//	SENT    -> READ
//	READ    -> CLICKED
//
// CANCELLED, CLICKED and FAILED-at-cap are terminal.
var transitions = map[string]map[string]bool{
	StatusPending: {StatusSent: true, StatusCancelled: true, StatusFailed: true},
	StatusFailed:  {StatusPending: true, StatusSent: true},
	StatusSent:    {StatusRead: true},
	StatusRead:    {StatusClicked: true},
}

// CanTransition reports whether moving a notification from one status to
// another follows the delivery state machine. Re-applying the current status
// is allowed so callers can treat repeats as no-ops rather than errors.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	return transitions[from][to]
}

// TerminalStatus reports whether no further delivery work applies. A FAILED
// notification is terminal only once its retries are exhausted, which is a
// property of the record, not the status alone.
func TerminalStatus(status string) bool {
	return status == StatusCancelled || status == StatusClicked
}
