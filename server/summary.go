package server

import (
	"sort"
	"strings"

	"github.com/kbukum/iotmarket/component"
)

// System route paths registered by RegisterDefaultEndpoints.
var systemPaths = map[string]bool{
	"/health": true,
	"/alive":  true,
	"/ready":  true,
	"/info":   true,
}

// SortRoutes orders routes for display: API routes first (by path, then
// method), system routes last. Handler names are shortened and system
// routes labelled.
func SortRoutes(routes []component.Route) []component.Route {
	out := make([]component.Route, len(routes))
	copy(out, routes)

	sort.SliceStable(out, func(i, j int) bool {
		iSys := systemPaths[out[i].Path]
		jSys := systemPaths[out[j].Path]
		if iSys != jSys {
			return !iSys
		}
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return methodOrder(out[i].Method) < methodOrder(out[j].Method)
	})

	for i := range out {
		out[i].Handler = formatHandlerName(out[i].Handler)
		if systemPaths[out[i].Path] {
			out[i].Handler += " (system)"
		}
	}
	return out
}

// formatHandlerName extracts a clean handler name from Gin's full handler path.
// Gin stores handlers like:
//
//	"github.com/kbukum/iotmarket/rest.(*API).list-fm"
//
// We extract: "API.list"
func formatHandlerName(fullPath string) string {
	name := strings.TrimSuffix(fullPath, "-fm")

	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}

	// "(*API).list" -> "API.list"
	name = strings.ReplaceAll(name, "(*", "")
	name = strings.ReplaceAll(name, ")", "")

	// Closures: "endpoint.Health.func1" -> "health"
	if strings.Contains(name, ".func") {
		parts := strings.Split(name, ".")
		for i := len(parts) - 1; i >= 0; i-- {
			if !strings.HasPrefix(parts[i], "func") {
				name = strings.ToLower(parts[i])
				break
			}
		}
	}

	// Drop a lowercase package prefix: "rest.API.list" -> "API.list"
	if pkg, rest, ok := strings.Cut(name, "."); ok && rest != "" && strings.ToLower(pkg) == pkg {
		name = rest
	}
	return name
}

// methodOrder returns a sort key for HTTP methods (GET first, DELETE last).
func methodOrder(method string) int {
	switch method {
	case "GET":
		return 0
	case "POST":
		return 1
	case "PUT":
		return 2
	case "PATCH":
		return 3
	case "DELETE":
		return 4
	default:
		return 5
	}
}
