package handlers

import (
	"github.com/taskhub-dev/taskhub/internal/events"
	"github.com/taskhub-dev/taskhub/internal/roles"
)

// Package-level collaborators, wired once at startup (and per-test).
var (
	roleStore   *roles.Store
	eventSource *events.Source
)

// Configure installs the role store and event source used by the handlers.
func Configure(store *roles.Store, source *events.Source) {
	roleStore = store
	eventSource = source
}
