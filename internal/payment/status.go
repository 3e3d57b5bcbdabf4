// GreatK Platform | 2026
// status.go

package payment

import (
	"strings"
)

// Status is the closed enumeration the free-form gateway payment
// status maps to at the boundary. Anything unrecognized is Unknown and
// is treated like a failure: no settlement.
type Status int

const (
	StatusUnknown Status = iota
	StatusSuccess
	StatusFailure
	StatusPending
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusPending:
		return "pending"
	default:
		return "unknown"
	}
}

// ParseStatus maps the gateway's raw payment_status string. Only the
// literal success sentinel settles; the failure and pending buckets
// follow the gateway's published terminal and transient states.
func ParseStatus(raw string) Status {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SUCCESS":
		return StatusSuccess
	case "FAILED", "FAILURE", "CANCELLED", "USER_DROPPED", "VOID", "FLAGGED":
		return StatusFailure
	case "PENDING", "NOT_ATTEMPTED":
		return StatusPending
	default:
		return StatusUnknown
	}
}
