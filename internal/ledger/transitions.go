package ledger

// AllowedTransitions lists, for each status, the statuses a stored
// transaction may move to. Chargedback is terminal.
func AllowedTransitions() map[Status][]Status {
	return map[Status][]Status{
		StatusProcessed:   {StatusDisputed},
		StatusDisputed:    {StatusResolved, StatusChargedback},
		StatusResolved:    {StatusDisputed},
		StatusChargedback: {},
	}
}

// CanTransition reports whether from -> to is a valid lifecycle move.
func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions()[from] {
		if s == to {
			return true
		}
	}
	return false
}
