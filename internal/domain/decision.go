package domain

// Outcome is the result kind of a gate evaluation.
type Outcome int

const (
	OutcomeContinue Outcome = iota
	OutcomeSignIn
	OutcomeRoleSelection
	OutcomeAccessDenied
	OutcomeLanding
)

func (o Outcome) String() string {
	switch o {
	case OutcomeContinue:
		return "continue"
	case OutcomeSignIn:
		return "sign_in"
	case OutcomeRoleSelection:
		return "role_selection"
	case OutcomeAccessDenied:
		return "access_denied"
	case OutcomeLanding:
		return "landing"
	default:
		return "unknown"
	}
}

// Decision is what the gate tells the request layer to do.
type Decision struct {
	Outcome  Outcome
	Location string
	Reason   string
}

// IsRedirect reports whether the decision sends the caller elsewhere.
func (d Decision) IsRedirect() bool {
	return d.Outcome != OutcomeContinue
}

// Continue lets the request through.
func Continue(reason string) Decision {
	return Decision{Outcome: OutcomeContinue, Reason: reason}
}

// RedirectTo builds a redirect decision towards the target for o.
func RedirectTo(o Outcome, targets RedirectTargets, reason string) Decision {
	var loc string
	switch o {
	case OutcomeSignIn:
		loc = targets.SignIn
	case OutcomeRoleSelection:
		loc = targets.RoleSelection
	case OutcomeAccessDenied:
		loc = targets.AccessDenied
	case OutcomeLanding:
		loc = targets.Landing
	default:
		return Continue(reason)
	}
	return Decision{Outcome: o, Location: loc, Reason: reason}
}
