package client

import (
	"sync"

	"project-camp/api/logging"
)

// Notifier surfaces problems to the user.
type Notifier interface {
	SessionExpired()
	Error(err error)
}

// Navigator moves the user between screens.
type Navigator interface {
	CurrentPath() string
	Redirect(path string)
}

// LogNotifier reports through the application log.
type LogNotifier struct{}

func (LogNotifier) SessionExpired() {
	logging.Logger.Warn("Event ID: CLIENT_SESSION_EXPIRED, Description: Session expired, please log in again")
}

func (LogNotifier) Error(err error) {
	logging.Logger.Errorf("Event ID: CLIENT_REQUEST_FAILED, Description: %v", err)
}

// MemoryNavigator records the current path.
type MemoryNavigator struct {
	mu   sync.Mutex
	path string
}

func NewMemoryNavigator(path string) *MemoryNavigator {
	return &MemoryNavigator{path: path}
}

func (n *MemoryNavigator) CurrentPath() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.path
}

func (n *MemoryNavigator) Redirect(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.path = path
}
