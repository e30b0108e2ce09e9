package config

import (
	"fmt"
	"sort"

	"github.com/kbukum/iotmarket/datasource"
	"github.com/kbukum/iotmarket/observability"
	"github.com/kbukum/iotmarket/resolve"
	"github.com/kbukum/iotmarket/server"
)

// Keys under which AppConfig answers resolver lookups.
const (
	KeyName        = "name"
	KeyHost        = "host"
	KeyPort        = "port"
	KeyRestAPIRoot = "restApiRoot"
)

// DefaultName is the application name used when no configuration is given.
const DefaultName = "iotmarket"

// Default returns the configuration used when none is given: only the name
// is set.
func Default() *AppConfig {
	return &AppConfig{ServiceConfig: ServiceConfig{Name: DefaultName}}
}

// AppConfig is the configuration object handed to the bootstrapper.
// It is treated as read-only once the boot sequence starts.
type AppConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Host string `yaml:"host" mapstructure:"host"`
	// Port accepts a number or a numeric string, as env vars and YAML both may supply it.
	Port        any    `yaml:"port" mapstructure:"port"`
	RestAPIRoot string `yaml:"restApiRoot" mapstructure:"restApiRoot"`

	// DataSources are attached after the mandatory memory and mongo backends.
	DataSources map[string]datasource.Options `yaml:"datasources" mapstructure:"datasources"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills in ambient defaults. Host, port and API root are left
// alone: their fallbacks belong to the resolution chains.
func (c *AppConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks the ambient sections.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("config.server: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("config.observability: %w", err)
	}
	return nil
}

// DataSourceNames returns the extra datasource ids in registration order.
func (c *AppConfig) DataSourceNames() []string {
	names := make([]string, 0, len(c.DataSources))
	for name := range c.DataSources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Settings exposes the config as a resolver source named "config".
// Empty strings and a nil port read as absent.
func (c *AppConfig) Settings() resolve.Source {
	return resolve.SourceFunc("config", func(key string) (any, bool) {
		if c == nil {
			return nil, false
		}
		switch key {
		case KeyName:
			return c.Name, c.Name != ""
		case KeyHost:
			return c.Host, c.Host != ""
		case KeyPort:
			return c.Port, c.Port != nil
		case KeyRestAPIRoot:
			return c.RestAPIRoot, c.RestAPIRoot != ""
		}
		return nil, false
	})
}
