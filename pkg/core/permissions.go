package core

import (
	"sort"
	"sync"
)

// Permissions is a concurrency-safe PermissionChecker that can be updated at runtime,
// e.g. when the UI reports that the user granted access to contacts.
type Permissions struct {
	mu      sync.RWMutex
	granted map[Permission]bool
}

// NewPermissions returns a permission set with the given permissions granted.
func NewPermissions(granted ...Permission) *Permissions {
	p := &Permissions{granted: make(map[Permission]bool)}
	for _, g := range granted {
		p.granted[g] = true
	}
	return p
}

// Granted implements PermissionChecker.
func (p *Permissions) Granted(perm Permission) bool {
	if perm == PermissionNone {
		return true
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.granted[perm]
}

// Set grants or revokes perm and reports whether the state changed.
func (p *Permissions) Set(perm Permission, granted bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.granted[perm] == granted {
		return false
	}
	if granted {
		p.granted[perm] = true
	} else {
		delete(p.granted, perm)
	}
	return true
}

// List returns the granted permissions sorted by name.
func (p *Permissions) List() []Permission {
	p.mu.RLock()
	defer p.mu.RUnlock()
	list := make([]Permission, 0, len(p.granted))
	for perm := range p.granted {
		list = append(list, perm)
	}
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
	return list
}
