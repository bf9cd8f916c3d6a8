package main

import (
	"errors"

	"github.com/peteonrails/voxtype/internal/voxerr"
)

// Exit codes: distinct codes for the error classes a wrapping script or
// systemd unit might want to branch on.
const (
	exitOK             = 0
	exitGeneric        = 1
	exitConfigError    = 2
	exitDeviceError    = 3
	exitModelError     = 4
	exitSingleInstance = 5
)

func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, voxerr.ErrSingleInstance):
		return exitSingleInstance
	case errors.Is(err, voxerr.ErrConfig):
		return exitConfigError
	case errors.Is(err, voxerr.ErrModelNotFound):
		return exitModelError
	case errors.Is(err, voxerr.ErrDeviceAccess), errors.Is(err, voxerr.ErrDeviceNotFound), errors.Is(err, voxerr.ErrNoKeyboard):
		return exitDeviceError
	default:
		return exitGeneric
	}
}
