//go:build !unix

package tui

import (
	"errors"
	"os"
)

var errPauseUnsupported = errors.New("pause is not supported on this platform")

func suspend(*os.Process) error { return errPauseUnsupported }

func resume(*os.Process) error { return nil }
