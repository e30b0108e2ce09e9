package server

import (
	"context"
	"net"

	"github.com/spf13/cast"

	"github.com/kbukum/iotmarket/component"
)

const componentName = "http-server"

var (
	_ component.Component     = (*Component)(nil)
	_ component.Describable   = (*Component)(nil)
	_ component.RouteProvider = (*Component)(nil)
)

// Component wraps Server to implement component.Component.
type Component struct {
	server *Server
}

// NewComponent returns a component.Component backed by the given Server.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

// Name returns the component name used for registration.
func (sc *Component) Name() string { return componentName }

// Start starts the underlying HTTP server.
func (sc *Component) Start(ctx context.Context) error {
	return sc.server.Start(ctx)
}

// Stop gracefully shuts down the underlying HTTP server.
func (sc *Component) Stop(ctx context.Context) error {
	return sc.server.Stop(ctx)
}

// Health reports whether the server is listening.
func (sc *Component) Health(context.Context) component.Health {
	if sc.server.Listening() {
		return component.Health{Name: componentName, Status: component.StatusHealthy}
	}
	return component.Health{
		Name:    componentName,
		Status:  component.StatusUnhealthy,
		Message: "HTTP server not listening",
	}
}

// Describe returns infrastructure summary info for the startup display.
func (sc *Component) Describe() component.Description {
	addr := sc.server.Addr()
	var port int
	if _, p, err := net.SplitHostPort(addr); err == nil {
		port = cast.ToInt(p)
	}
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: addr,
		Port:    port,
	}
}

// Routes returns all registered HTTP routes for the startup summary,
// API routes first.
func (sc *Component) Routes() []component.Route {
	return SortRoutes(sc.server.host.Routes())
}
