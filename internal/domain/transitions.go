package domain

// allowedTransitions lists every legal status change. Terminal states have no entry.
var allowedTransitions = map[RideStatus][]RideStatus{
	RideStatusRequested: {RideStatusOngoing, RideStatusCancelled},
	RideStatusOngoing:   {RideStatusCompleted},
}

// CanTransition reports whether a ride may move from one status to another.
func CanTransition(from, to RideStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further status change is possible.
func (s RideStatus) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0
}

// Valid reports whether s is a known ride status.
func (s RideStatus) Valid() bool {
	switch s {
	case RideStatusRequested, RideStatusOngoing, RideStatusCompleted, RideStatusCancelled:
		return true
	}
	return false
}
