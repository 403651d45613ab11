package common

import (
	"errors"
	"strings"
)

var ErrModulePaused = errors.New("module paused")

const (
	ModuleVoteEscrow = "voteescrow"
	ModuleMultiFee   = "multifee"
	ModuleBank       = "bank"
)

type PauseView interface {
	IsPaused(module string) bool
}

// StaticPauses is a PauseView backed by a fixed module set, typically built
// from configuration.
type StaticPauses map[string]bool

// IsPaused implements PauseView.
func (p StaticPauses) IsPaused(module string) bool {
	if p == nil {
		return false
	}
	return p[strings.ToLower(strings.TrimSpace(module))]
}

func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
