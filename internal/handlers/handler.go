package handlers

import (
	"github.com/monocle-dev/taskboard/internal/monitors"
	"github.com/monocle-dev/taskboard/internal/realtime"
	"github.com/monocle-dev/taskboard/internal/services"
)

type Handler struct {
	Tasks  *services.TaskService
	Users  *services.UserService
	Hub    *realtime.Hub
	Checks []monitors.Check
	// Domain scopes the auth cookie; empty means host-only.
	Domain string
}
