//go:build windows

package platform

import (
	"golang.org/x/sys/windows/registry"
)

// ErrRunValueNotExist is what a RunKey returns for a missing value.
var ErrRunValueNotExist error = registry.ErrNotExist

var openUserRunKey = func(path string) (RunKey, error) {
	k, _, err := registry.CreateKey(registry.CURRENT_USER, path, registry.QUERY_VALUE|registry.SET_VALUE)
	if err != nil {
		return nil, err
	}
	return k, nil
}
