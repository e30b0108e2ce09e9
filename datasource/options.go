package datasource

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Connector names shipped with iotmarket.
const (
	ConnectorMemory  = "memory"
	ConnectorMongoDB = "mongodb"
	ConnectorRedis   = "redis"
)

// Options configure one datasource. Connector-specific knobs that have no
// field of their own go in Settings.
type Options struct {
	Connector string         `yaml:"connector" mapstructure:"connector" json:"connector" validate:"required"`
	Host      string         `yaml:"host" mapstructure:"host" json:"host,omitempty"`
	Port      int            `yaml:"port" mapstructure:"port" json:"port,omitempty" validate:"gte=0,lte=65535"`
	Database  string         `yaml:"database" mapstructure:"database" json:"database,omitempty"`
	URL       string         `yaml:"url" mapstructure:"url" json:"url,omitempty" validate:"omitempty,url"`
	Password  string         `yaml:"password" mapstructure:"password" json:"-"`
	Settings  map[string]any `yaml:"settings" mapstructure:"settings" json:"settings,omitempty"`

	// ConnectAttempts is how often the connector is tried before the
	// datasource counts as failed. Zero means once.
	ConnectAttempts int           `yaml:"connect_attempts" mapstructure:"connect_attempts" json:"connect_attempts,omitempty" validate:"gte=0,lte=20"`
	ConnectBackoff  time.Duration `yaml:"connect_backoff" mapstructure:"connect_backoff" json:"connect_backoff,omitempty" validate:"gte=0"`
}

// Addr returns host:port, or "" when no host is configured.
func (o Options) Addr() string {
	if o.Host == "" {
		return ""
	}
	if o.Port == 0 {
		return o.Host
	}
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

// Setting returns Settings[key] as a string, or fallback.
func (o Options) Setting(key, fallback string) string {
	if v, ok := o.Settings[key]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return fallback
}
