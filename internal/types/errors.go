package types

import (
	"errors"
	"fmt"
)

var (
	ErrTransport           = errors.New("transport error")
	ErrMalformedResponse   = errors.New("malformed advisory response")
	ErrInsufficientCapital = errors.New("insufficient capital")
	ErrAllocationExceeded  = errors.New("allocation exceeded")
	ErrPersistence         = errors.New("persistence error")
	ErrPriceUnavailable    = errors.New("price unavailable")
	ErrNoMarketData        = errors.New("no market data")
)

// Rejection is a capital-policy refusal. It is normal control flow, not a fault.
type Rejection struct {
	Reason ReasonCode
	Detail string
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return fmt.Sprintf("rejected: %s", r.Reason)
	}
	return fmt.Sprintf("rejected: %s: %s", r.Reason, r.Detail)
}

func (r *Rejection) Is(target error) bool {
	switch target {
	case ErrInsufficientCapital:
		return r.Reason == ReasonInsufficientCap
	case ErrAllocationExceeded:
		return r.Reason == ReasonAssetAllocation
	}
	return false
}

// RejectionReason extracts the reason code from err, if it is a Rejection.
func RejectionReason(err error) (ReasonCode, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Reason, true
	}
	return "", false
}
