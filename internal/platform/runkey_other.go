//go:build !windows

package platform

import "errors"

// ErrRunValueNotExist is what a RunKey returns for a missing value. It stands
// in for registry.ErrNotExist on builds without registry access.
var ErrRunValueNotExist = errors.New("registry value does not exist")

// openUserRunKey is nil: the Windows adapter needs an injected opener here.
var openUserRunKey func(path string) (RunKey, error)
