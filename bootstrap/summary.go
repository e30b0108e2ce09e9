package bootstrap

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kbukum/iotmarket/component"
	"github.com/kbukum/iotmarket/host"
	"github.com/kbukum/iotmarket/server"
)

// InfrastructureInfo holds one datasource or server line.
type InfrastructureInfo struct {
	Name    string
	Type    string // "datasource", "server"
	Details string
	Port    int
}

// ModelInfo holds one registered model line.
type ModelInfo struct {
	Name       string
	DataSource string
	Public     bool
}

// RouteInfo represents a registered HTTP route.
type RouteInfo struct {
	Method  string
	Path    string
	Handler string
}

// Summary tracks and displays what a boot run produced.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	settings        []Setting
	infrastructure  []InfrastructureInfo
	models          []ModelInfo
	routes          []RouteInfo
}

// NewSummary creates a new startup summary tracker.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackSetting records a resolved setting and its source.
func (s *Summary) TrackSetting(st Setting) {
	s.settings = append(s.settings, st)
}

// TrackInfrastructure adds a datasource or server line.
func (s *Summary) TrackInfrastructure(name, componentType, details string, port int) {
	s.infrastructure = append(s.infrastructure, InfrastructureInfo{
		Name:    name,
		Type:    componentType,
		Details: details,
		Port:    port,
	})
}

// TrackModel records a registered model.
func (s *Summary) TrackModel(name, dataSource string, public bool) {
	s.models = append(s.models, ModelInfo{Name: name, DataSource: dataSource, Public: public})
}

// TrackRoute records an HTTP route.
func (s *Summary) TrackRoute(method, path, handler string) {
	s.routes = append(s.routes, RouteInfo{Method: method, Path: path, Handler: handler})
}

// Collect gathers settings, datasources, models and routes from a booted
// host, plus anything describable in registry.
func (s *Summary) Collect(h *host.Host, report Report, registry *component.Registry) {
	for _, st := range report.Settings {
		s.TrackSetting(st)
	}
	for _, ds := range h.DataSources() {
		d := ds.Describe()
		s.TrackInfrastructure(d.Name, d.Type, d.Details, d.Port)
	}
	if registry != nil {
		for _, c := range registry.All() {
			if d, ok := c.(component.Describable); ok {
				desc := d.Describe()
				name := desc.Name
				if name == "" {
					name = c.Name()
				}
				s.TrackInfrastructure(name, desc.Type, desc.Details, desc.Port)
			}
		}
	}
	for _, reg := range h.Models() {
		s.TrackModel(reg.Name(), reg.DataSource, reg.Public)
	}
	for _, r := range server.SortRoutes(h.Routes()) {
		s.TrackRoute(r.Method, r.Path, r.Handler)
	}
}

// Display writes the summary to w, followed by the live health results.
func (s *Summary) Display(w io.Writer, health []component.Health) {
	fmt.Fprintf(w, "\n%s %s booted in %.2fs\n\n", s.serviceName, s.version, s.startupDuration.Seconds())

	if len(s.settings) > 0 {
		fmt.Fprintf(w, "Settings\n")
		for i, st := range s.settings {
			fmt.Fprintf(w, "   %s %s = %v (%s)\n", treePrefix(i, len(s.settings)), st.Key, st.Value, st.Source)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Infrastructure\n")
	if len(s.infrastructure) == 0 {
		fmt.Fprintf(w, "   └── No components registered\n")
	}
	for i, inf := range s.infrastructure {
		details := inf.Details
		if inf.Port > 0 && !strings.HasSuffix(details, fmt.Sprintf(":%d", inf.Port)) {
			details = fmt.Sprintf("%s (:%d)", details, inf.Port)
		}
		fmt.Fprintf(w, "   %s [%s] %s: %s\n", treePrefix(i, len(s.infrastructure)), inf.Type, inf.Name, details)
	}

	if len(s.models) > 0 {
		fmt.Fprintf(w, "\nModels (%d)\n", len(s.models))
		for i, m := range s.models {
			visibility := "private"
			if m.Public {
				visibility = "public"
			}
			fmt.Fprintf(w, "   %s %s -> %s (%s)\n", treePrefix(i, len(s.models)), m.Name, m.DataSource, visibility)
		}
	}

	if len(s.routes) > 0 {
		fmt.Fprintf(w, "\nRoutes (%d)\n", len(s.routes))
		for i, r := range s.routes {
			fmt.Fprintf(w, "   %s %-7s %s -> %s\n", treePrefix(i, len(s.routes)), r.Method, r.Path, r.Handler)
		}
	}

	if len(health) > 0 {
		fmt.Fprintf(w, "\nHealth Check\n")
		healthy := 0
		for i, h := range health {
			msg := ""
			if h.Message != "" {
				msg = ": " + h.Message
			}
			if h.Status == component.StatusHealthy {
				healthy++
			}
			fmt.Fprintf(w, "   %s %s %s %s%s\n", treePrefix(i, len(health)), healthStatusIcon(h.Status), h.Name, h.Status, msg)
		}
		if healthy == len(health) {
			fmt.Fprintf(w, "\nAll datasources healthy (%d/%d)\n", healthy, len(health))
		} else {
			fmt.Fprintf(w, "\nSome datasources have issues (%d/%d healthy)\n", healthy, len(health))
		}
	}

	fmt.Fprintln(w)
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthStatusIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
