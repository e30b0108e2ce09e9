package bootstrap

import (
	"context"
	"fmt"

	"github.com/kbukum/iotmarket/config"
	"github.com/kbukum/iotmarket/errors"
	"github.com/kbukum/iotmarket/host"
	"github.com/kbukum/iotmarket/resolve"
	"github.com/kbukum/iotmarket/validation"
)

// Defaults applied when nothing else supplies a value.
const (
	DefaultPort        = 3000
	DefaultRestAPIRoot = "/api"
)

// HostChain lists the sources consulted for the listen host, highest first.
func HostChain(env resolve.Source, cfg *config.AppConfig, state resolve.Source) resolve.Chain {
	return resolve.From(env, "npm_config_host", "OPENSHIFT_SLS_IP", "OPENSHIFT_NODEJS_IP", "VCAP_APP_HOST", "HOST").
		Then(
			resolve.Candidate{Source: cfg.Settings(), Key: config.KeyHost},
			resolve.Candidate{Source: env, Key: "npm_package_config_host"},
			resolve.Candidate{Source: state, Key: host.KeyHost},
		)
}

// PortChain lists the sources consulted for the listen port, highest first.
func PortChain(env resolve.Source, cfg *config.AppConfig, state resolve.Source) resolve.Chain {
	return resolve.From(env, "npm_config_port", "OPENSHIFT_SLS_PORT", "OPENSHIFT_NODEJS_PORT", "VCAP_APP_PORT", "PORT").
		Then(
			resolve.Candidate{Source: cfg.Settings(), Key: config.KeyPort},
			resolve.Candidate{Source: env, Key: "npm_package_config_port"},
			resolve.Candidate{Source: state, Key: host.KeyPort},
			resolve.Default(DefaultPort),
		)
}

// RestAPIRootChain lists the sources consulted for the API root, highest first.
func RestAPIRootChain(cfg *config.AppConfig, state resolve.Source) resolve.Chain {
	return resolve.Chain{
		{Source: cfg.Settings(), Key: config.KeyRestAPIRoot},
		{Source: state, Key: host.KeyRestAPIRoot},
	}.Then(resolve.Default(DefaultRestAPIRoot))
}

// installHost commits the first non-empty host. When nothing supplies one
// the host state is left untouched.
func installHost(_ context.Context, b *booter) error {
	res, ok := HostChain(b.opts.env, b.cfg, b.host.State()).Resolve(resolve.Truthy)
	if !ok {
		b.log.Info("No host configured, listening on all interfaces")
		return nil
	}
	if _, isString := res.Value.(string); !isString {
		return errors.InvalidInput(host.KeyHost, fmt.Sprintf("must be a string, got %T", res.Value)).
			WithDetail("source", res.String())
	}
	b.commit(host.KeyHost, res.Value, res.String())
	return nil
}

// installPort commits the first present port, 3000 when none is configured.
func installPort(_ context.Context, b *booter) error {
	res, _ := PortChain(b.opts.env, b.cfg, b.host.State()).Resolve(resolve.Present)
	if !isStringOrNumber(res.Value) {
		return errors.InvalidInput(host.KeyPort, fmt.Sprintf("must be a string or number, got %T", res.Value)).
			WithDetail("source", res.String())
	}
	b.commit(host.KeyPort, res.Value, res.String())
	return nil
}

// installRestAPIRoot commits the API root, "/api" when none is configured.
func installRestAPIRoot(_ context.Context, b *booter) error {
	res, _ := RestAPIRootChain(b.cfg, b.host.State()).Resolve(resolve.Truthy)
	root, isString := res.Value.(string)
	if !isString {
		return errors.InvalidInput(host.KeyRestAPIRoot, fmt.Sprintf("must be a string, got %T", res.Value)).
			WithDetail("source", res.String())
	}
	if err := validation.Var(host.KeyRestAPIRoot, root, "startswith=/"); err != nil {
		return err
	}
	b.commit(host.KeyRestAPIRoot, root, res.String())
	return nil
}

func isStringOrNumber(v any) bool {
	switch v.(type) {
	case string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

// ResolveSettings runs only the host, port and API root steps against a
// scratch host and reports the outcome. A host passed with WithHost is read
// for fallbacks but not modified.
func ResolveSettings(cfg *config.AppConfig, opts ...Option) ([]Setting, error) {
	o := resolveOptions(opts)
	if cfg == nil {
		cfg = config.Default()
	}
	h := host.New(host.WithLogger(o.logger))
	if o.host != nil {
		for k, v := range o.host.State().Snapshot() {
			h.Set(k, v)
		}
	}
	b := &booter{
		cfg:    cfg,
		host:   h,
		opts:   o,
		log:    o.logger.WithComponent("bootstrap"),
		report: &Report{},
	}
	for _, s := range steps[:3] {
		if err := s.run(context.Background(), b); err != nil {
			return nil, err
		}
	}
	return b.report.Settings, nil
}
