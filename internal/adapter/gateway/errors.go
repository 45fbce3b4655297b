package gateway

import (
	"errors"
	"fmt"
)

// Reason classifies why a gateway call failed.
type Reason string

const (
	ReasonConfigMissing Reason = "config_missing"
	ReasonNetwork       Reason = "network"
	ReasonRejected      Reason = "rejected"
)

var (
	ErrConfigMissing = errors.New("gateway credentials are not configured")
	ErrNetwork       = errors.New("gateway is unreachable")
	ErrRejected      = errors.New("gateway rejected the request")
)

// Error is returned by every Client operation.
type Error struct {
	Op     string
	Reason Reason
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("gateway %s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("gateway %s: %s: %v", e.Op, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the sentinel of the error's reason.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrConfigMissing:
		return e.Reason == ReasonConfigMissing
	case ErrNetwork:
		return e.Reason == ReasonNetwork
	case ErrRejected:
		return e.Reason == ReasonRejected
	}
	return false
}
