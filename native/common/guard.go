package common

import "errors"

var ErrModulePaused = errors.New("module paused")

// PauseView reports whether a module's mutating operations are halted.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects the call when module is paused. Queries never consult it.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
