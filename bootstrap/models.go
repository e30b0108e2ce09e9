package bootstrap

import (
	"context"

	"github.com/spf13/cast"

	"github.com/kbukum/iotmarket/host"
	"github.com/kbukum/iotmarket/logger"
	"github.com/kbukum/iotmarket/model"
)

// FeedModel is the application model every host serves.
const FeedModel = "feed"

// Feed is the feed model definition.
func Feed() model.Definition {
	return model.MustDefine(FeedModel,
		model.Field{Name: "name", Type: model.TypeString},
	)
}

// installModels registers the identity built-ins and then feed, all on the
// ephemeral datasource.
func installModels(ctx context.Context, b *booter) error {
	memID := cast.ToString(b.host.Get(host.KeyDBMemory))

	defs := append(model.BuiltIns(), Feed())
	for _, def := range defs {
		if err := b.host.Model(ctx, def, model.Options{DataSource: memID, Public: true}); err != nil {
			return err
		}
		b.log.Debug("Model registered", logger.Fields(
			logger.FieldModel, def.Name,
			logger.FieldDataSource, memID,
		))
	}
	b.log.Info("Models registered", logger.Fields(
		"count", len(defs),
		logger.FieldDataSource, memID,
	))
	return nil
}
