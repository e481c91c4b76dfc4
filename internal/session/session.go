// Package session holds the process-wide "current authenticated identity"
// slot as a mutex-guarded struct handed to whoever needs it, with "no
// session" as the default state.
package session

import (
	"sync"

	"github.com/meditrack/identity/internal/models"
)

type Context struct {
	mu      sync.RWMutex
	current *models.User
}

func New() *Context {
	return &Context{}
}

// Set replaces the current identity. Called by AuthService on successful
// credential verification.
func (c *Context) Set(user *models.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = user
}

// Clear drops the current identity (logout).
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
}

// Current returns the held identity, or nil when no session exists.
func (c *Context) Current() *models.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Role returns the current session role. ok is false when no identity is
// held or the held identity is inactive.
func (c *Context) Role() (models.Role, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil || !c.current.IsActive {
		return "", false
	}
	return c.current.Role, true
}

// Predicates are computed on every read, never cached.

func (c *Context) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current != nil && c.current.IsActive
}

func (c *Context) IsAdmin() bool {
	role, ok := c.Role()
	return ok && role == models.RoleAdmin
}

func (c *Context) IsClinician() bool {
	role, ok := c.Role()
	return ok && role == models.RoleClinician
}

func (c *Context) IsPatient() bool {
	role, ok := c.Role()
	return ok && role == models.RolePatient
}
