package entity

import (
	"errors"
	"time"
)

// ErrDeliveryFailed is returned by the notifier when a passcode could not be
// handed to the mail provider.
var ErrDeliveryFailed = errors.New("passcode delivery failed")

// Passcode is the one-time passcode row of a principal.
type Passcode struct {
	PrincipalID int64
	Code        string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	Consumed    bool
	ConsumedAt  *time.Time
}

// StateAt reports where the passcode is in its lifecycle at now.
// A passcode is still valid at exactly ExpiresAt.
func (p Passcode) StateAt(now time.Time) PasscodeState {
	switch {
	case p.Code == "":
		return PasscodeStateNone
	case p.Consumed:
		return PasscodeStateConsumed
	case now.After(p.ExpiresAt):
		return PasscodeStateExpired
	default:
		return PasscodeStateIssued
	}
}

// PasscodeState is the per-principal passcode lifecycle state.
type PasscodeState int

const (
	PasscodeStateNone PasscodeState = iota
	PasscodeStateIssued
	PasscodeStateConsumed
	PasscodeStateExpired
)

func (s PasscodeState) String() string {
	switch s {
	case PasscodeStateIssued:
		return "issued"
	case PasscodeStateConsumed:
		return "consumed"
	case PasscodeStateExpired:
		return "expired"
	default:
		return "none"
	}
}

// ConsumeOutcome is the result of trying to consume a passcode. Only
// ConsumeOK means the code was accepted.
type ConsumeOutcome int

const (
	ConsumeOK ConsumeOutcome = iota
	ConsumeNotFound
	ConsumeExpired
	ConsumeMismatch
)

func (o ConsumeOutcome) String() string {
	switch o {
	case ConsumeOK:
		return "ok"
	case ConsumeNotFound:
		return "not_found"
	case ConsumeExpired:
		return "expired"
	case ConsumeMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// ConsumeResult carries the outcome and, on success, the principal that was verified.
type ConsumeResult struct {
	Outcome   ConsumeOutcome
	Principal Principal
}
