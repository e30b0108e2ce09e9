package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cast"

	"github.com/kbukum/iotmarket/datasource"
	"github.com/kbukum/iotmarket/errors"
	"github.com/kbukum/iotmarket/logger"
	"github.com/kbukum/iotmarket/model"
)

// Defaults applied when Options leave the address empty.
const (
	DefaultHost = "localhost"
	DefaultPort = 6379
)

func init() {
	datasource.Register(datasource.ConnectorRedis, Open)
}

// Store keeps each model in one hash, <prefix>:<model>, mapping record id to
// the record's JSON encoding.
type Store struct {
	rdb    *goredis.Client
	prefix string
	log    *logger.Logger
}

var _ datasource.Store = (*Store)(nil)

// Open connects to Redis and pings it, so an unreachable server fails
// registration. Settings: db (number), prefix (defaults to the datasource id).
func Open(ctx context.Context, id string, opts datasource.Options, log *logger.Logger) (datasource.Store, error) {
	db, err := cast.ToIntE(opts.Settings["db"])
	if err != nil {
		return nil, fmt.Errorf("redis db setting: %w", err)
	}

	var rdbOpts *goredis.Options
	if opts.URL != "" {
		rdbOpts, err = goredis.ParseURL(opts.URL)
		if err != nil {
			return nil, fmt.Errorf("redis url: %w", err)
		}
	} else {
		host := opts.Host
		if host == "" {
			host = DefaultHost
		}
		port := opts.Port
		if port == 0 {
			port = DefaultPort
		}
		rdbOpts = &goredis.Options{
			Addr:     fmt.Sprintf("%s:%d", host, port),
			Password: opts.Password,
			DB:       db,
		}
	}

	rdb := goredis.NewClient(rdbOpts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	log.Info("Redis client created", logger.Fields("addr", rdbOpts.Addr, "db", rdbOpts.DB))
	return &Store{rdb: rdb, prefix: opts.Setting("prefix", id), log: log}, nil
}

func (s *Store) key(def model.Definition) string {
	return s.prefix + ":" + def.Name
}

// Define records the model in <prefix>:models.
func (s *Store) Define(ctx context.Context, def model.Definition) error {
	if err := s.rdb.SAdd(ctx, s.prefix+":models", def.Name).Err(); err != nil {
		return errors.DatabaseError(err).WithDetail(logger.FieldModel, def.Name)
	}
	return nil
}

// Create stores rec under a new id.
func (s *Store) Create(ctx context.Context, def model.Definition, rec datasource.Record) (datasource.Record, error) {
	out := make(datasource.Record, len(rec)+1)
	for k, v := range rec {
		out[k] = v
	}
	id := uuid.NewString()
	out[model.IDField] = id

	data, err := json.Marshal(out)
	if err != nil {
		return nil, errors.InvalidInput("", err.Error())
	}
	if err := s.rdb.HSet(ctx, s.key(def), id, data).Err(); err != nil {
		return nil, errors.DatabaseError(err).WithDetail(logger.FieldModel, def.Name)
	}
	return out, nil
}

// Find returns every record, ordered by id since hashes are unordered.
func (s *Store) Find(ctx context.Context, def model.Definition) ([]datasource.Record, error) {
	all, err := s.rdb.HGetAll(ctx, s.key(def)).Result()
	if err != nil {
		return nil, errors.DatabaseError(err).WithDetail(logger.FieldModel, def.Name)
	}
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]datasource.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := decode(all[id])
		if err != nil {
			return nil, errors.DatabaseError(err).WithDetail(logger.FieldModel, def.Name)
		}
		out = append(out, rec)
	}
	return out, nil
}

// FindByID returns one record or a NOT_FOUND error.
func (s *Store) FindByID(ctx context.Context, def model.Definition, id string) (datasource.Record, error) {
	raw, err := s.rdb.HGet(ctx, s.key(def), id).Result()
	if err == goredis.Nil {
		return nil, errors.NotFound(def.Name, id)
	}
	if err != nil {
		return nil, errors.DatabaseError(err).WithDetail(logger.FieldModel, def.Name)
	}
	rec, err := decode(raw)
	if err != nil {
		return nil, errors.DatabaseError(err).WithDetail(logger.FieldModel, def.Name)
	}
	return rec, nil
}

// Delete removes one record or returns a NOT_FOUND error.
func (s *Store) Delete(ctx context.Context, def model.Definition, id string) error {
	n, err := s.rdb.HDel(ctx, s.key(def), id).Result()
	if err != nil {
		return errors.DatabaseError(err).WithDetail(logger.FieldModel, def.Name)
	}
	if n == 0 {
		return errors.NotFound(def.Name, id)
	}
	return nil
}

// Ping verifies the Redis connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	pong, err := s.rdb.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	if pong != "PONG" {
		return fmt.Errorf("unexpected redis ping response: %s", pong)
	}
	return nil
}

// Close closes the client.
func (s *Store) Close(_ context.Context) error {
	s.log.Info("Closing Redis connection")
	return s.rdb.Close()
}

func decode(raw string) (datasource.Record, error) {
	var rec datasource.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}
