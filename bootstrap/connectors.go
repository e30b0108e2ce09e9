package bootstrap

// Register the shipped connectors with the default datasource registry.
import (
	_ "github.com/kbukum/iotmarket/datasource/memory"
	_ "github.com/kbukum/iotmarket/datasource/mongodb"
	_ "github.com/kbukum/iotmarket/datasource/redis"
)
