package mongodb

import (
	"context"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kbukum/iotmarket/datasource"
	"github.com/kbukum/iotmarket/logger"
	"github.com/kbukum/iotmarket/model"
)

func TestURI(t *testing.T) {
	tests := []struct {
		name string
		opts datasource.Options
		want string
	}{
		{"defaults", datasource.Options{}, "mongodb://localhost:27017"},
		{"host and port", datasource.Options{Host: "db.internal", Port: 27018}, "mongodb://db.internal:27018"},
		{"url wins", datasource.Options{Host: "ignored", URL: "mongodb://replica/x"}, "mongodb://replica/x"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := URI(tc.opts); got != tc.want {
				t.Errorf("URI() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestOpenIsLazy(t *testing.T) {
	ctx := context.Background()
	// Nothing listens here; Open must still succeed.
	store, err := Open(ctx, "demo-mongo", datasource.Options{
		Connector: "mongodb",
		Host:      "127.0.0.1",
		Port:      1,
		Settings:  map[string]any{"server_selection_timeout": "50ms"},
	}, logger.Nop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close(ctx)

	if got := store.(*Store).Database(); got != "demo-mongo" {
		t.Errorf("database should default to the datasource id, got %q", got)
	}
	if err := store.Define(ctx, model.User()); err != nil {
		t.Errorf("Define should not touch the network, got %v", err)
	}
	if err := store.Ping(ctx); err == nil {
		t.Error("expected Ping to fail without a server")
	}
}

func TestOpenRejectsBadOptions(t *testing.T) {
	tests := []struct {
		name string
		opts datasource.Options
	}{
		{"malformed url", datasource.Options{Connector: "mongodb", URL: "http://not-mongo"}},
		{"bad timeout", datasource.Options{Connector: "mongodb", Settings: map[string]any{"server_selection_timeout": "soon"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Open(context.Background(), "x", tc.opts, logger.Nop()); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDatabaseOverride(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, "demo-mongo", datasource.Options{Connector: "mongodb", Database: "market"}, logger.Nop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close(ctx)
	if got := store.(*Store).Database(); got != "market" {
		t.Errorf("expected database market, got %q", got)
	}
}

func TestFromDocument(t *testing.T) {
	doc := bson.M{
		"_id":   "abc",
		"name":  "thermo",
		"count": int32(3),
		"meta":  primitive.M{"unit": "C", "nested": primitive.D{{Key: "k", Value: int64(1)}}},
		"tags":  primitive.A{"a", primitive.M{"b": true}},
	}
	want := datasource.Record{
		"id":    "abc",
		"name":  "thermo",
		"count": float64(3),
		"meta":  map[string]any{"unit": "C", "nested": map[string]any{"k": float64(1)}},
		"tags":  []any{"a", map[string]any{"b": true}},
	}
	if got := fromDocument(doc); !reflect.DeepEqual(got, want) {
		t.Errorf("fromDocument() = %#v, want %#v", got, want)
	}
}

func TestRegisteredWithDefaultRegistry(t *testing.T) {
	for _, name := range datasource.DefaultRegistry().Names() {
		if name == datasource.ConnectorMongoDB {
			return
		}
	}
	t.Fatal("mongodb connector should register itself on import")
}
