package guard

import (
	"context"
	"errors"
	"github.com/ValentinKolb/kvguard/lib/store"
	"net"
)

var (
	// ErrNotConnected is returned for operations issued while the guard has no live connection
	ErrNotConnected = errors.New("guard: not connected")
	// ErrClosed is returned for operations issued after Close
	ErrClosed = errors.New("guard: closed")
	// ErrInvalidConfig wraps all configuration errors
	ErrInvalidConfig = errors.New("guard: invalid configuration")
)

// Kind classifies an operation failure
type Kind int

const (
	// KindOther covers every failure that is returned to the caller unchanged
	KindOther Kind = iota
	// KindTimeout marks a failure where the store did not answer in time; it is retried
	KindTimeout
)

// String returns the string representation of a Kind
func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	default:
		return "other"
	}
}

// Classify returns the Kind of err. A driver error is a timeout if its code is
// store.RetCTimeout, any other error if it is a network timeout. Expired or cancelled contexts are not
// timeouts of the store, so they are never retried.
func Classify(err error) Kind {
	if err == nil {
		return KindOther
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindOther
	}
	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		return kindOfCode(storeErr.Code)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindOther
}

// IsTimeout reports whether err is classified as KindTimeout
func IsTimeout(err error) bool {
	return Classify(err) == KindTimeout
}

func kindOfCode(code store.RetCode) Kind {
	if code == store.RetCTimeout {
		return KindTimeout
	}
	return KindOther
}
