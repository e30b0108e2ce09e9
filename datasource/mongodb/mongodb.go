package mongodb

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kbukum/iotmarket/datasource"
	apperrors "github.com/kbukum/iotmarket/errors"
	"github.com/kbukum/iotmarket/logger"
	"github.com/kbukum/iotmarket/model"
)

// Defaults applied when Options leave the address empty.
const (
	DefaultHost = "localhost"
	DefaultPort = 27017

	defaultServerSelection = 5 * time.Second
)

func init() {
	datasource.Register(datasource.ConnectorMongoDB, Open)
}

// Store keeps each model in a collection of its own.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	log    *logger.Logger
}

var _ datasource.Store = (*Store)(nil)

// URI returns the connection string for opts: URL when set, otherwise
// mongodb://host:port with the default address filling gaps.
func URI(opts datasource.Options) string {
	if opts.URL != "" {
		return opts.URL
	}
	host := opts.Host
	if host == "" {
		host = DefaultHost
	}
	port := opts.Port
	if port == 0 {
		port = DefaultPort
	}
	return "mongodb://" + net.JoinHostPort(host, strconv.Itoa(port))
}

// Open builds a client for datasource id. The driver connects in the
// background, so Open fails only on invalid options; Ping reports
// reachability. The database defaults to the datasource id.
// Settings: server_selection_timeout (duration).
func Open(ctx context.Context, id string, opts datasource.Options, log *logger.Logger) (datasource.Store, error) {
	timeout := defaultServerSelection
	if raw, ok := opts.Settings["server_selection_timeout"]; ok {
		d, err := cast.ToDurationE(raw)
		if err != nil {
			return nil, fmt.Errorf("server_selection_timeout: %w", err)
		}
		timeout = d
	}

	clientOpts := options.Client().
		ApplyURI(URI(opts)).
		SetAppName("iotmarket").
		SetServerSelectionTimeout(timeout).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
	if opts.Password != "" && clientOpts.Auth != nil {
		clientOpts.Auth.Password = opts.Password
		clientOpts.Auth.PasswordSet = true
	}
	if err := clientOpts.Validate(); err != nil {
		return nil, fmt.Errorf("mongodb options: %w", err)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}

	dbName := opts.Database
	if dbName == "" {
		dbName = id
	}
	log.Debug("mongodb client created", logger.Fields("uri_host", clientOpts.Hosts, "database", dbName))
	return &Store{client: client, db: client.Database(dbName), log: log}, nil
}

// Database returns the database name records are written to.
func (s *Store) Database() string { return s.db.Name() }

// Define is a no-op: MongoDB creates collections on first insert.
func (s *Store) Define(_ context.Context, _ model.Definition) error {
	return nil
}

// Create inserts rec under a new id.
func (s *Store) Create(ctx context.Context, def model.Definition, rec datasource.Record) (datasource.Record, error) {
	id := uuid.NewString()
	doc := bson.M{"_id": id}
	for k, v := range rec {
		if k == model.IDField {
			continue
		}
		doc[k] = v
	}
	if _, err := s.db.Collection(def.Name).InsertOne(ctx, doc); err != nil {
		return nil, apperrors.DatabaseError(err).WithDetail(logger.FieldModel, def.Name)
	}
	out := make(datasource.Record, len(rec)+1)
	for k, v := range rec {
		out[k] = v
	}
	out[model.IDField] = id
	return out, nil
}

// Find returns every record in natural order.
func (s *Store) Find(ctx context.Context, def model.Definition) ([]datasource.Record, error) {
	cur, err := s.db.Collection(def.Name).Find(ctx, bson.M{})
	if err != nil {
		return nil, apperrors.DatabaseError(err).WithDetail(logger.FieldModel, def.Name)
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, apperrors.DatabaseError(err).WithDetail(logger.FieldModel, def.Name)
	}
	out := make([]datasource.Record, 0, len(docs))
	for _, doc := range docs {
		out = append(out, fromDocument(doc))
	}
	return out, nil
}

// FindByID returns one record or a NOT_FOUND error.
func (s *Store) FindByID(ctx context.Context, def model.Definition, id string) (datasource.Record, error) {
	var doc bson.M
	err := s.db.Collection(def.Name).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFound(def.Name, id)
	}
	if err != nil {
		return nil, apperrors.DatabaseError(err).WithDetail(logger.FieldModel, def.Name)
	}
	return fromDocument(doc), nil
}

// Delete removes one record or returns a NOT_FOUND error.
func (s *Store) Delete(ctx context.Context, def model.Definition, id string) error {
	res, err := s.db.Collection(def.Name).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperrors.DatabaseError(err).WithDetail(logger.FieldModel, def.Name)
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound(def.Name, id)
	}
	return nil
}

// Ping checks that a server is reachable within the selection timeout.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// fromDocument converts a decoded document into a record: _id becomes id and
// BSON container types become plain maps and slices.
func fromDocument(doc bson.M) datasource.Record {
	out := make(datasource.Record, len(doc))
	for k, v := range doc {
		if k == "_id" {
			out[model.IDField] = fmt.Sprint(v)
			continue
		}
		out[k] = plain(v)
	}
	return out
}

func plain(v any) any {
	switch t := v.(type) {
	case primitive.M:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = plain(val)
		}
		return m
	case primitive.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = plain(e.Value)
		}
		return m
	case primitive.A:
		a := make([]any, len(t))
		for i, val := range t {
			a[i] = plain(val)
		}
		return a
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	}
	return v
}
