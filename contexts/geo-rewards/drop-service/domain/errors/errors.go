package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDropInput    = errors.New("invalid drop input")
	ErrInvalidClaimPayload = errors.New("invalid claim payload")
	ErrDropNotFound        = errors.New("drop not found")
	ErrAlreadyClaimed      = errors.New("drop already claimed by user")
	ErrTooFar              = errors.New("claimant is outside the drop geofence")
	ErrBackendUnavailable  = errors.New("persistence backend unavailable")
)

// TooFarError carries the distance a claimant still has to cover.
// errors.Is(err, ErrTooFar) matches it.
type TooFarError struct {
	ShortfallMeters int
}

func (e *TooFarError) Error() string {
	return fmt.Sprintf("%s: %d meters short", ErrTooFar.Error(), e.ShortfallMeters)
}

func (e *TooFarError) Unwrap() error {
	return ErrTooFar
}

// ShortfallMeters extracts the remediation distance from a TooFar failure.
func ShortfallMeters(err error) (int, bool) {
	var tooFar *TooFarError
	if errors.As(err, &tooFar) {
		return tooFar.ShortfallMeters, true
	}
	return 0, false
}
