package bootstrap

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/kbukum/iotmarket/config"
	"github.com/kbukum/iotmarket/datasource"
	"github.com/kbukum/iotmarket/errors"
	"github.com/kbukum/iotmarket/host"
	"github.com/kbukum/iotmarket/logger"
	"github.com/kbukum/iotmarket/model"
	"github.com/kbukum/iotmarket/observability"
	"github.com/kbukum/iotmarket/resolve"
	"github.com/kbukum/iotmarket/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func appConfig(name string) *config.AppConfig {
	return &config.AppConfig{ServiceConfig: config.ServiceConfig{Name: name}}
}

// noEnv keeps the process environment out of the resolution chains.
func noEnv() Option {
	return WithEnv(resolve.EnvMap(nil))
}

func testConnectors() *testutil.Connectors {
	return testutil.NewConnectors(datasource.ConnectorMemory, datasource.ConnectorMongoDB)
}

func TestBootDemo(t *testing.T) {
	ctx := context.Background()
	h, err := Boot(ctx, appConfig("demo"), noEnv(), WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("Boot() error = %v", err)
	}
	defer h.Close(ctx)

	checks := map[string]any{
		host.KeyRestAPIRoot:    "/api",
		host.KeyPort:           DefaultPort,
		host.KeyDBMemory:       "demo-memory",
		host.KeyDBMongo:        "demo-mongo",
		host.KeyLegacyExplorer: false,
		host.KeyBooting:        false,
	}
	for key, want := range checks {
		if got := h.Get(key); got != want {
			t.Errorf("%s = %v, want %v", key, got, want)
		}
	}
	if h.Get(host.KeyHost) != nil {
		t.Errorf("host must stay unset, got %v", h.Get(host.KeyHost))
	}
	if h.Phase() != host.PhaseReady || h.Booting() {
		t.Errorf("expected ready, not booting; got %s booting=%v", h.Phase(), h.Booting())
	}

	dss := h.DataSources()
	if len(dss) != 2 {
		t.Fatalf("expected 2 datasources, got %d", len(dss))
	}
	if dss[0].Name() != "demo-memory" || dss[0].Connector() != datasource.ConnectorMemory {
		t.Errorf("unexpected first datasource %s/%s", dss[0].Name(), dss[0].Connector())
	}
	mongo := dss[1].Options()
	if dss[1].Name() != "demo-mongo" || mongo.Connector != datasource.ConnectorMongoDB ||
		mongo.Host != "localhost" || mongo.Port != 27017 {
		t.Errorf("unexpected mongo datasource %s %+v", dss[1].Name(), mongo)
	}

	var names []string
	for _, reg := range h.Models() {
		names = append(names, reg.Name())
		if reg.DataSource != "demo-memory" {
			t.Errorf("%s bound to %s", reg.Name(), reg.DataSource)
		}
	}
	want := []string{model.UserModel, model.AccessTokenModel, model.ACLModel, model.RoleMappingModel, model.RoleModel, FeedModel}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("models = %v, want %v", names, want)
	}
}

func TestBootWithoutConfig(t *testing.T) {
	ctx := context.Background()
	h, err := Boot(ctx, nil, noEnv(), WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("Boot(nil) error = %v", err)
	}
	defer h.Close(ctx)

	if got := h.Get(host.KeyDBMemory); got != "iotmarket-memory" {
		t.Errorf("dbmemory = %v, want iotmarket-memory", got)
	}
	if got := h.Get(host.KeyDBMongo); got != "iotmarket-mongo" {
		t.Errorf("dbmongo = %v, want iotmarket-mongo", got)
	}

	// A config given without a name is still rejected.
	_, err = Boot(ctx, &config.AppConfig{}, noEnv(), WithLogger(logger.Nop()))
	if appErr, ok := errors.AsAppError(err); !ok || appErr.Code != errors.ErrCodeMissingField {
		t.Fatalf("expected MISSING_FIELD for an unnamed config, got %v", err)
	}
}

func TestBootIsRepeatable(t *testing.T) {
	ctx := context.Background()
	conns := testConnectors()
	opts := []Option{noEnv(), WithLogger(logger.Nop()), WithConnectors(conns.Registry())}

	first, err := Boot(ctx, appConfig("repeat"), opts...)
	if err != nil {
		t.Fatal(err)
	}
	defer first.Close(ctx)
	second, err := Boot(ctx, appConfig("repeat"), opts...)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close(ctx)

	if first == second {
		t.Fatal("each boot must produce a new host")
	}
	for _, key := range []string{host.KeyPort, host.KeyRestAPIRoot, host.KeyDBMemory, host.KeyDBMongo} {
		if first.Get(key) != second.Get(key) {
			t.Errorf("%s differs: %v vs %v", key, first.Get(key), second.Get(key))
		}
	}
	if len(first.Models()) != len(second.Models()) {
		t.Error("model registrations differ")
	}
}

func TestSettingPrecedence(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		cfg    func(*config.AppConfig)
		state  map[string]any
		key    string
		want   any
		source string
	}{
		{"port default", nil, nil, nil, host.KeyPort, 3000, "default"},
		{"port from config", nil, func(c *config.AppConfig) { c.Port = 4000 }, nil, host.KeyPort, 4000, "config:port"},
		{"PORT beats config", map[string]string{"PORT": "5000"}, func(c *config.AppConfig) { c.Port = 4000 }, nil, host.KeyPort, "5000", "env:PORT"},
		{"npm_config_port beats PORT", map[string]string{"PORT": "5000", "npm_config_port": "6000"}, nil, nil, host.KeyPort, "6000", "env:npm_config_port"},
		{"VCAP beats PORT", map[string]string{"PORT": "5000", "VCAP_APP_PORT": "7000"}, nil, nil, host.KeyPort, "7000", "env:VCAP_APP_PORT"},
		{"config beats npm_package", map[string]string{"npm_package_config_port": "8000"}, func(c *config.AppConfig) { c.Port = "4000" }, nil, host.KeyPort, "4000", "config:port"},
		{"npm_package beats host state", map[string]string{"npm_package_config_port": "8000"}, nil, map[string]any{host.KeyPort: 9000}, host.KeyPort, "8000", "env:npm_package_config_port"},
		{"port from host state", nil, nil, map[string]any{host.KeyPort: 9000}, host.KeyPort, 9000, "host:port"},
		{"port zero is present", nil, func(c *config.AppConfig) { c.Port = 0 }, nil, host.KeyPort, 0, "config:port"},
		{"host from HOST", map[string]string{"HOST": "0.0.0.0"}, func(c *config.AppConfig) { c.Host = "127.0.0.1" }, nil, host.KeyHost, "0.0.0.0", "env:HOST"},
		{"empty HOST skipped", map[string]string{"HOST": ""}, func(c *config.AppConfig) { c.Host = "127.0.0.1" }, nil, host.KeyHost, "127.0.0.1", "config:host"},
		{"OPENSHIFT_SLS_IP first", map[string]string{"HOST": "a", "OPENSHIFT_SLS_IP": "b", "npm_config_host": ""}, nil, nil, host.KeyHost, "b", "env:OPENSHIFT_SLS_IP"},
		{"host from host state", nil, nil, map[string]any{host.KeyHost: "10.0.0.1"}, host.KeyHost, "10.0.0.1", "host:host"},
		{"api root default", nil, nil, nil, host.KeyRestAPIRoot, "/api", "default"},
		{"api root from config", nil, func(c *config.AppConfig) { c.RestAPIRoot = "/v1" }, map[string]any{host.KeyRestAPIRoot: "/v2"}, host.KeyRestAPIRoot, "/v1", "config:restApiRoot"},
		{"api root from host state", nil, nil, map[string]any{host.KeyRestAPIRoot: "/v2"}, host.KeyRestAPIRoot, "/v2", "host:restApiRoot"},
		{"empty host state api root skipped", nil, nil, map[string]any{host.KeyRestAPIRoot: ""}, host.KeyRestAPIRoot, "/api", "default"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := appConfig("prec")
			if tc.cfg != nil {
				tc.cfg(cfg)
			}
			seed := host.New(host.WithLogger(logger.Nop()))
			for k, v := range tc.state {
				seed.Set(k, v)
			}

			settings, err := ResolveSettings(cfg, WithEnv(resolve.EnvMap(tc.env)), WithHost(seed), WithLogger(logger.Nop()))
			if err != nil {
				t.Fatalf("ResolveSettings() error = %v", err)
			}
			var found *Setting
			for i := range settings {
				if settings[i].Key == tc.key {
					found = &settings[i]
				}
			}
			if found == nil {
				t.Fatalf("%s not resolved: %+v", tc.key, settings)
			}
			if found.Value != tc.want || found.Source != tc.source {
				t.Errorf("%s = %v from %s, want %v from %s", tc.key, found.Value, found.Source, tc.want, tc.source)
			}
			if len(tc.state) > 0 && seed.State().Version() != uint64(len(tc.state)) {
				t.Error("ResolveSettings must not modify the seed host")
			}
		})
	}
}

func TestHostLeftUntouchedWhenUnresolved(t *testing.T) {
	settings, err := ResolveSettings(appConfig("x"), noEnv(), WithLogger(logger.Nop()))
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range settings {
		if s.Key == host.KeyHost {
			t.Errorf("host must not be committed, got %+v", s)
		}
	}
	if len(settings) != 2 {
		t.Errorf("expected port and restApiRoot only, got %+v", settings)
	}
}

func TestBootValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *config.AppConfig
		state    map[string]any
		wantCode errors.ErrorCode
	}{
		{"empty name", appConfig(""), nil, errors.ErrCodeMissingField},
		{"blank name", appConfig("   "), nil, errors.ErrCodeMissingField},
		{"api root without slash", func() *config.AppConfig { c := appConfig("x"); c.RestAPIRoot = "api"; return c }(), nil, errors.ErrCodeInvalidFormat},
		{"api root not a string", appConfig("x"), map[string]any{host.KeyRestAPIRoot: 42}, errors.ErrCodeInvalidInput},
		{"port not a number", func() *config.AppConfig { c := appConfig("x"); c.Port = true; return c }(), nil, errors.ErrCodeInvalidInput},
		{"port in host state not a number", appConfig("x"), map[string]any{host.KeyPort: []int{1}}, errors.ErrCodeInvalidInput},
		{"host not a string", appConfig("x"), map[string]any{host.KeyHost: 42}, errors.ErrCodeInvalidInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			conns := testConnectors()
			seed := host.New(host.WithLogger(logger.Nop()), host.WithConnectors(conns.Registry()))
			for k, v := range tc.state {
				seed.Set(k, v)
			}

			h, err := Boot(context.Background(), tc.cfg, noEnv(), WithHost(seed), WithLogger(logger.Nop()))
			if h != nil {
				t.Error("a failed boot must not return a host")
			}
			if !errors.IsValidation(err) {
				t.Fatalf("expected a validation error, got %v", err)
			}
			if appErr, _ := errors.AsAppError(err); appErr.Code != tc.wantCode {
				t.Errorf("expected %s, got %s", tc.wantCode, appErr.Code)
			}
			if len(conns.Opened()) != 0 {
				t.Errorf("no backend may be registered, got %v", conns.Opened())
			}
			if seed.Phase() != host.PhaseFailed {
				t.Errorf("expected failed phase, got %s", seed.Phase())
			}
		})
	}
}

func TestBootBackendFailure(t *testing.T) {
	conns := testConnectors()
	conns.Fail(datasource.ConnectorMongoDB, stderrors.New("server selection timeout"))

	h, err := Boot(context.Background(), appConfig("demo"), noEnv(), WithConnectors(conns.Registry()), WithLogger(logger.Nop()))
	if h != nil {
		t.Error("a failed boot must not return a host")
	}
	if !errors.IsBackendRegistration(err) {
		t.Fatalf("expected BACKEND_REGISTRATION_FAILED, got %v", err)
	}
	appErr, _ := errors.AsAppError(err)
	if appErr.Details["datasource"] != "demo-mongo" {
		t.Errorf("expected demo-mongo in details, got %v", appErr.Details)
	}
	if !reflect.DeepEqual(conns.Opened(), []string{"demo-memory"}) {
		t.Errorf("expected only demo-memory opened, got %v", conns.Opened())
	}
	if !conns.Closed("demo-memory") {
		t.Error("attached datasources must be closed after a failed boot")
	}
}

func TestBootExtraDataSources(t *testing.T) {
	ctx := context.Background()
	conns := testConnectors()
	conns.Fail(datasource.ConnectorRedis, stderrors.New("connection refused"))
	cfg := appConfig("demo")
	cfg.DataSources = map[string]datasource.Options{
		"cache":     {Connector: datasource.ConnectorMemory},
		"analytics": {Connector: datasource.ConnectorMemory},
	}

	h, err := Boot(ctx, cfg, noEnv(), WithConnectors(conns.Registry()), WithLogger(logger.Nop()))
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close(ctx)

	want := []string{"demo-memory", "demo-mongo", "analytics", "cache"}
	if !reflect.DeepEqual(conns.Opened(), want) {
		t.Errorf("opened %v, want %v", conns.Opened(), want)
	}

	cfg.DataSources = map[string]datasource.Options{"sessions": {Connector: datasource.ConnectorRedis}}
	if _, err := Boot(ctx, cfg, noEnv(), WithConnectors(conns.Registry()), WithLogger(logger.Nop())); !errors.IsBackendRegistration(err) {
		t.Errorf("expected BACKEND_REGISTRATION_FAILED for the broken extra datasource, got %v", err)
	}
}

func TestBootingFlagDuringSteps(t *testing.T) {
	conns := testConnectors()
	seed := host.New(host.WithLogger(logger.Nop()), host.WithConnectors(conns.Registry()))
	var sawBooting []bool
	conns.OnOpen(func(string) { sawBooting = append(sawBooting, seed.Booting()) })

	h, err := Boot(context.Background(), appConfig("flag"), noEnv(), WithHost(seed), WithLogger(logger.Nop()))
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close(context.Background())

	if !reflect.DeepEqual(sawBooting, []bool{true, true}) {
		t.Errorf("expected booting during datasource registration, got %v", sawBooting)
	}
	if h.Booting() {
		t.Error("booting must be false after boot")
	}
}

func TestBootRejectsBootedHost(t *testing.T) {
	ctx := context.Background()
	conns := testConnectors()
	h, err := Boot(ctx, appConfig("once"), noEnv(), WithConnectors(conns.Registry()), WithLogger(logger.Nop()))
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close(ctx)

	if _, err := Boot(ctx, appConfig("once"), noEnv(), WithHost(h), WithLogger(logger.Nop())); err == nil {
		t.Error("expected an error booting a ready host")
	}
}

func TestBootReport(t *testing.T) {
	ctx := context.Background()
	conns := testConnectors()
	var report Report
	h, err := Boot(ctx, appConfig("demo"), noEnv(), WithConnectors(conns.Registry()), WithReport(&report), WithLogger(logger.Nop()))
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close(ctx)

	var stepNames []string
	for _, s := range report.Steps {
		stepNames = append(stepNames, s.Name)
	}
	want := []string{StepHost, StepPort, StepRestAPIRoot, StepDataSources, StepModels, StepMiddleware, StepComponents, StepFinalize}
	if !reflect.DeepEqual(stepNames, want) {
		t.Errorf("steps = %v, want %v", stepNames, want)
	}
	if len(report.Settings) != 2 || report.Settings[0].Key != host.KeyPort || report.Settings[0].Source != "default" {
		t.Errorf("unexpected settings %+v", report.Settings)
	}
	if report.Duration <= 0 {
		t.Error("expected a boot duration")
	}
}

func TestBootServesRestAndExplorer(t *testing.T) {
	ctx := context.Background()
	conns := testConnectors()
	cfg := appConfig("demo")
	cfg.RestAPIRoot = "/v1"
	h, err := Boot(ctx, cfg, noEnv(), WithConnectors(conns.Registry()), WithLogger(logger.Nop()))
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close(ctx)

	post := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/feeds", strings.NewReader(`{"name":"temperature"}`))
	req.Header.Set("Content-Type", "application/json")
	h.Handler().ServeHTTP(post, req)
	if post.Code != http.StatusCreated {
		t.Fatalf("POST /v1/feeds = %d %s", post.Code, post.Body.String())
	}
	if post.Header().Get("X-Request-Id") == "" {
		t.Error("REST routes must carry the request context middleware")
	}

	list := httptest.NewRecorder()
	h.Handler().ServeHTTP(list, httptest.NewRequest(http.MethodGet, "/v1/feeds", nil))
	if list.Code != http.StatusOK || !strings.Contains(list.Body.String(), "temperature") {
		t.Errorf("GET /v1/feeds = %d %s", list.Code, list.Body.String())
	}

	explorer := httptest.NewRecorder()
	h.Handler().ServeHTTP(explorer, httptest.NewRequest(http.MethodGet, "/v1/explorer", nil))
	if explorer.Code != http.StatusOK || !strings.Contains(explorer.Body.String(), `"plural":"feeds"`) {
		t.Errorf("GET /v1/explorer = %d %s", explorer.Code, explorer.Body.String())
	}
	if explorer.Header().Get("X-Request-Id") != "" {
		t.Error("the explorer is mounted before the request context middleware")
	}
}

func TestBootMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())
	metrics, err := observability.NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	conns := testConnectors()
	h, err := Boot(ctx, appConfig("demo"), noEnv(), WithConnectors(conns.Registry()), WithMetrics(metrics), WithLogger(logger.Nop()))
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close(ctx)
	_, _ = Boot(ctx, appConfig(""), noEnv(), WithConnectors(conns.Registry()), WithMetrics(metrics), WithLogger(logger.Nop()))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatal(err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "boot.total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok || len(sum.DataPoints) != 2 {
				t.Errorf("expected ok and failed boot.total points, got %+v", m.Data)
			}
			return
		}
	}
	t.Error("boot.total not recorded")
}
