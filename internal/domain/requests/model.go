package requests

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusCompleted
}

type Request struct {
	ID            int64
	RequesterName string
	Department    string
	ItemID        int64
	Qty           int64
	Note          string
	Status        Status
	RequestedAt   time.Time
	ProcessedAt   *time.Time
	ProcessedBy   *int64
	RejectReason  string
}
