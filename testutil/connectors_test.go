package testutil

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/kbukum/iotmarket/datasource"
	"github.com/kbukum/iotmarket/logger"
)

func TestConnectorsRecordOpenAndClose(t *testing.T) {
	ctx := context.Background()
	c := NewConnectors(datasource.ConnectorMemory)
	var hooked []string
	c.OnOpen(func(id string) { hooked = append(hooked, id) })

	a, err := c.Registry().Open(ctx, "a", datasource.Options{Connector: datasource.ConnectorMemory}, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Registry().Open(ctx, "b", datasource.Options{Connector: datasource.ConnectorMemory}, logger.Nop()); err != nil {
		t.Fatal(err)
	}

	if got := c.Opened(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Opened() = %v", got)
	}
	if !reflect.DeepEqual(hooked, []string{"a", "b"}) {
		t.Errorf("hooks saw %v", hooked)
	}
	if err := a.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if !c.Closed("a") || c.Closed("b") || c.Closed("missing") {
		t.Error("unexpected close state")
	}
}

func TestConnectorsFail(t *testing.T) {
	c := NewConnectors(datasource.ConnectorMemory)
	refused := errors.New("connection refused")
	c.Fail(datasource.ConnectorMemory, refused)

	_, err := c.Registry().Open(context.Background(), "a", datasource.Options{Connector: datasource.ConnectorMemory}, logger.Nop())
	if !errors.Is(err, refused) {
		t.Errorf("expected the configured error, got %v", err)
	}
	if len(c.Opened()) != 0 {
		t.Error("failed opens must not be recorded")
	}
}
