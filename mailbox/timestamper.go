package mailbox

import (
	"time"
)

// TimeStamper is the clock a mailbox stamps drains with.
type TimeStamper interface {
	Timestamp() time.Time
}

type timestamper struct {
}

// NewTimeStamper reads the wall clock in UTC.
func NewTimeStamper() *timestamper {
	return &timestamper{}
}

func (ts *timestamper) Timestamp() time.Time {
	return time.Now().UTC()
}
