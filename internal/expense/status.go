package expense

// Status is the lifecycle state of an expense record
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

// transitions maps each status to the statuses an approval workflow may move it to.
// Creation always yields draft; approved and rejected are terminal.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusSubmitted},
	StatusSubmitted: {StatusApproved, StatusRejected},
	StatusApproved:  {},
	StatusRejected:  {},
}

// Known reports whether s is one of the four recognized statuses.
// Records carrying anything else are excluded from aggregation but never
// cause a failure; an external workflow owns status transitions.
func (s Status) Known() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether the approval workflow may move a record
// from s to next
func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}
