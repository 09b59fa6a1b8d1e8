package domain

import "time"

// Status represents the lifecycle state of a reimbursement.
type Status int

const (
	StatusPending  Status = 1
	StatusApproved Status = 2
	StatusDenied   Status = 3
)

// validTransitions defines the allowed state machine transitions.
// Approved and Denied are terminal.
var validTransitions = map[Status][]Status{
	StatusPending: {StatusApproved, StatusDenied},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusApproved:
		return "approved"
	case StatusDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// ReimbursementType is the expense category of a reimbursement.
type ReimbursementType int

const (
	TypeLodging ReimbursementType = 1
	TypeTravel  ReimbursementType = 2
	TypeFood    ReimbursementType = 3
	TypeOther   ReimbursementType = 4
)

func (t ReimbursementType) String() string {
	switch t {
	case TypeLodging:
		return "lodging"
	case TypeTravel:
		return "travel"
	case TypeFood:
		return "food"
	case TypeOther:
		return "other"
	default:
		return "unknown"
	}
}

// Reimbursement is the core aggregate root.
//
// Only the fields tagged as required are supplied by callers. Submitted,
// Resolved, Resolver and Status are owned by the lifecycle.
type Reimbursement struct {
	ID          int               `json:"id"                 validate:"required,gt=0"`
	Amount      float64           `json:"amount"             validate:"required,gt=0"`
	Submitted   time.Time         `json:"submitted"`
	Resolved    *time.Time        `json:"resolved,omitempty"`
	Description string            `json:"description"        validate:"required"`
	Author      int               `json:"author"             validate:"required,gt=0"`
	Resolver    *int              `json:"resolver,omitempty"`
	Status      Status            `json:"status"`
	Type        ReimbursementType `json:"type"               validate:"required,oneof=1 2 3 4"`
}

// Resolution is the input of the approve/deny transition.
type Resolution struct {
	ID       int    `json:"id"       validate:"required,gt=0"`
	Status   Status `json:"status"   validate:"required,oneof=2 3"`
	Resolver int    `json:"resolver" validate:"required,gt=0"`
}

// Audit actions recorded for reimbursements.
const (
	ActionSubmitted = "submitted"
	ActionUpdated   = "updated"
	ActionResolved  = "resolved"
)

// ReimbursementEvent is an entry of a reimbursement's audit trail.
type ReimbursementEvent struct {
	ReimbursementID int       `json:"reimbursement_id"`
	Action          string    `json:"action"`
	Status          Status    `json:"status"`
	ActorID         int       `json:"actor_id"`
	OccurredAt      time.Time `json:"occurred_at"`
}
