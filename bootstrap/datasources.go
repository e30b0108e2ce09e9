package bootstrap

import (
	"context"
	"strings"

	"github.com/kbukum/iotmarket/datasource"
	"github.com/kbukum/iotmarket/errors"
	"github.com/kbukum/iotmarket/host"
	"github.com/kbukum/iotmarket/logger"
)

// Address of the mongo backend every host attaches.
const (
	MongoHost = "localhost"
	MongoPort = 27017
)

// MemoryDataSource names the ephemeral backend for name.
func MemoryDataSource(name string) string { return name + "-memory" }

// MongoDataSource names the document backend for name.
func MongoDataSource(name string) string { return name + "-mongo" }

// installDataSources attaches the ephemeral and document backends, then any
// extra datasources from the config in name order. The application name is
// checked before anything is attached.
func installDataSources(ctx context.Context, b *booter) error {
	name := b.cfg.Name
	if strings.TrimSpace(name) == "" {
		return errors.MissingField("name")
	}

	memID, mongoID := MemoryDataSource(name), MongoDataSource(name)
	b.host.Set(host.KeyDBMemory, memID)
	b.host.Set(host.KeyDBMongo, mongoID)

	mandatory := []struct {
		id   string
		opts datasource.Options
	}{
		{memID, datasource.Options{Connector: datasource.ConnectorMemory}},
		{mongoID, datasource.Options{Connector: datasource.ConnectorMongoDB, Host: MongoHost, Port: MongoPort}},
	}
	for _, ds := range mandatory {
		if err := b.attach(ctx, ds.id, ds.opts); err != nil {
			return err
		}
	}

	for _, id := range b.cfg.DataSourceNames() {
		if err := b.attach(ctx, id, b.cfg.DataSources[id]); err != nil {
			return err
		}
	}
	return nil
}

func (b *booter) attach(ctx context.Context, id string, opts datasource.Options) error {
	if err := b.host.DataSource(ctx, id, opts); err != nil {
		return err
	}
	b.log.Info("Datasource registered", logger.Fields(
		logger.FieldDataSource, id,
		logger.FieldConnector, opts.Connector,
	))
	return nil
}
