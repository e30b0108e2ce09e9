package bootstrap

import (
	"context"

	"github.com/spf13/cast"

	"github.com/kbukum/iotmarket/host"
	"github.com/kbukum/iotmarket/logger"
	"github.com/kbukum/iotmarket/rest"
	"github.com/kbukum/iotmarket/server/middleware"
)

// finalize runs after every installer: it retires the legacy explorer,
// installs the request context middleware for everything mounted from here
// on and mounts the REST surface at the API root.
func finalize(_ context.Context, b *booter) error {
	b.host.Set(host.KeyLegacyExplorer, false)

	b.host.Use("/", middleware.RequestContext())

	root := cast.ToString(b.host.Get(host.KeyRestAPIRoot))
	restOpts := []rest.Option{rest.WithLogger(b.opts.logger)}
	if b.opts.metrics != nil {
		restOpts = append(restOpts, rest.WithMetrics(b.opts.metrics))
	}
	b.host.Mount(root, rest.New(b.host, restOpts...))

	b.log.Info("REST surface mounted", logger.Fields(
		"path", root,
		"models", len(b.host.Models()),
	))
	return nil
}
