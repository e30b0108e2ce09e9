package bootstrap

import (
	"context"

	"github.com/spf13/cast"

	"github.com/kbukum/iotmarket/host"
	"github.com/kbukum/iotmarket/logger"
	"github.com/kbukum/iotmarket/rest"
)

// installMiddleware has nothing to install yet; it keeps its slot in the
// step order.
func installMiddleware(_ context.Context, b *booter) error {
	b.log.Debug("No middleware to install")
	return nil
}

// installComponents mounts the API explorer under the API root.
func installComponents(_ context.Context, b *booter) error {
	path := cast.ToString(b.host.Get(host.KeyRestAPIRoot)) + rest.ExplorerPath
	b.host.Mount(path, rest.NewExplorer(b.host))
	b.log.Info("Explorer mounted", logger.Fields("path", path))
	return nil
}
