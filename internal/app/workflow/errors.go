package workflow

import "github.com/cockroachdb/errors"

// Errors
var (
	ErrDisabledCycle  = errors.New("cycle of disabled states")
	ErrNoEnabledState = errors.New("no enabled state reachable")
	ErrUnknownState   = errors.New("unknown state")
	ErrDuplicateState = errors.New("state registered twice")
	ErrCameraFault    = errors.New("camera fault")
)

// guard runs fn and converts a panic into an error.
func guard(id StateID, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("panic in %s: %v", id, r)
		}
	}()
	return fn()
}
