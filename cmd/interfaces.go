package cmd

import (
	"context"
)

// Reconciler applies queued device state updates until ctx is done.
type Reconciler interface {
	Run(ctx context.Context) error
}

// Bus is the MQTT connection lifecycle cmd.run drives.
type Bus interface {
	Connect() error
	Close()
}

// HubSync connects to Home Assistant and subscribes device entities.
type HubSync interface {
	Start(ctx context.Context) error
}

// Hub is the Home Assistant connection closed on shutdown.
type Hub interface {
	Close() error
}

// Server serves the MCP tools until ctx is done or its transport ends.
type Server interface {
	Run(ctx context.Context) error
}
