// Package settings holds application-wide presentation state. The dashboard
// charts pick their palette from it, so it is injected where needed instead
// of being read from ambient context.
package settings

import (
	"fmt"
	"sync"
)

// Mode is the color scheme the back office renders charts for.
type Mode string

const (
	ModeLight Mode = "light"
	ModeDark  Mode = "dark"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeLight, ModeDark:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown appearance mode %q", s)
}

// Appearance is constructed once at startup and shared. Reads vastly outnumber
// writes.
type Appearance struct {
	mu   sync.RWMutex
	mode Mode
}

func NewAppearance(mode Mode) *Appearance {
	return &Appearance{mode: mode}
}

func (a *Appearance) Mode() Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

func (a *Appearance) SetMode(m Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mode = m
}

func (a *Appearance) Toggle() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode == ModeDark {
		a.mode = ModeLight
	} else {
		a.mode = ModeDark
	}
	return a.mode
}
