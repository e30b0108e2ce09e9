package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kbukum/iotmarket/datasource"
	"github.com/kbukum/iotmarket/errors"
	"github.com/kbukum/iotmarket/logger"
	"github.com/kbukum/iotmarket/model"
)

const defaultSlowQuery = 200 * time.Millisecond

func init() {
	datasource.Register(datasource.ConnectorMemory, Open)
}

// Store keeps records in a private in-memory SQLite database, one table per
// model. Contents vanish when the store is closed.
type Store struct {
	db    *gorm.DB
	sqlDB *sql.DB
	log   *logger.Logger

	mu      sync.RWMutex
	defined map[string]model.Definition
}

var _ datasource.Store = (*Store)(nil)

// Open creates the in-memory database for datasource id.
// Settings: log_level (silent, error, warn, info).
func Open(ctx context.Context, id string, opts datasource.Options, log *logger.Logger) (datasource.Store, error) {
	// A shared-cache name keeps one database across the pool's connections;
	// the uuid keeps two datasources with the same id apart.
	dsn := fmt.Sprintf("file:%s-%s?mode=memory&cache=shared", id, uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: newGormLogger(log, defaultSlowQuery, parseLogLevel(opts.Setting("log_level", "warn"))),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	// The database lives only while a connection is open.
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)
	sqlDB.SetMaxIdleConns(4)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &Store{db: db, sqlDB: sqlDB, log: log, defined: make(map[string]model.Definition)}, nil
}

// Define creates the model's table if it does not exist.
func (s *Store) Define(ctx context.Context, def model.Definition) error {
	cols := []string{quoteIdent(model.IDField) + " TEXT PRIMARY KEY"}
	for _, f := range def.Fields {
		cols = append(cols, quoteIdent(f.Name)+" "+columnType(f.Type))
	}
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(def.Name), strings.Join(cols, ", "))
	if err := s.db.WithContext(ctx).Exec(stmt).Error; err != nil {
		return errors.DatabaseError(err).WithDetail(logger.FieldModel, def.Name)
	}

	s.mu.Lock()
	s.defined[def.Name] = def
	s.mu.Unlock()
	return nil
}

// Create inserts rec under a new id.
func (s *Store) Create(ctx context.Context, def model.Definition, rec datasource.Record) (datasource.Record, error) {
	if err := s.ensureDefined(def); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	row := map[string]any{model.IDField: id}
	for _, f := range def.Fields {
		v, ok := rec[f.Name]
		if !ok || v == nil {
			continue
		}
		enc, err := encode(f.Type, v)
		if err != nil {
			return nil, errors.InvalidInput(f.Name, err.Error())
		}
		row[f.Name] = enc
	}
	if err := s.db.WithContext(ctx).Table(def.Name).Create(row).Error; err != nil {
		return nil, errors.DatabaseError(err).WithDetail(logger.FieldModel, def.Name)
	}

	out := make(datasource.Record, len(rec)+1)
	for k, v := range rec {
		out[k] = v
	}
	out[model.IDField] = id
	return out, nil
}

// Find returns every record in insertion order.
func (s *Store) Find(ctx context.Context, def model.Definition) ([]datasource.Record, error) {
	if err := s.ensureDefined(def); err != nil {
		return nil, err
	}
	var rows []map[string]any
	if err := s.db.WithContext(ctx).Table(def.Name).Order("rowid").Find(&rows).Error; err != nil {
		return nil, errors.DatabaseError(err).WithDetail(logger.FieldModel, def.Name)
	}
	out := make([]datasource.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, decodeRow(def, row))
	}
	return out, nil
}

// FindByID returns one record or a NOT_FOUND error.
func (s *Store) FindByID(ctx context.Context, def model.Definition, id string) (datasource.Record, error) {
	if err := s.ensureDefined(def); err != nil {
		return nil, err
	}
	var rows []map[string]any
	err := s.db.WithContext(ctx).Table(def.Name).Where(quoteIdent(model.IDField)+" = ?", id).Limit(1).Find(&rows).Error
	if err != nil {
		return nil, errors.DatabaseError(err).WithDetail(logger.FieldModel, def.Name)
	}
	if len(rows) == 0 {
		return nil, errors.NotFound(def.Name, id)
	}
	return decodeRow(def, rows[0]), nil
}

// Delete removes one record or returns a NOT_FOUND error.
func (s *Store) Delete(ctx context.Context, def model.Definition, id string) error {
	if err := s.ensureDefined(def); err != nil {
		return err
	}
	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", quoteIdent(def.Name), quoteIdent(model.IDField))
	res := s.db.WithContext(ctx).Exec(stmt, id)
	if res.Error != nil {
		return errors.DatabaseError(res.Error).WithDetail(logger.FieldModel, def.Name)
	}
	if res.RowsAffected == 0 {
		return errors.NotFound(def.Name, id)
	}
	return nil
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

// Close drops the database.
func (s *Store) Close(_ context.Context) error {
	return s.sqlDB.Close()
}

func (s *Store) ensureDefined(def model.Definition) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.defined[def.Name]; !ok {
		return errors.NotFound("model", def.Name)
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func columnType(t model.FieldType) string {
	switch t {
	case model.TypeNumber:
		return "REAL"
	case model.TypeBoolean:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

// encode converts a prepared value into its column representation.
func encode(t model.FieldType, v any) (any, error) {
	switch t {
	case model.TypeObject, model.TypeArray:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case model.TypeBoolean:
		if b, ok := v.(bool); ok && b {
			return 1, nil
		}
		return 0, nil
	}
	return v, nil
}

// decodeRow maps a scanned row back to the field types of def. NULL columns
// are omitted.
func decodeRow(def model.Definition, row map[string]any) datasource.Record {
	out := make(datasource.Record, len(row))
	if id, ok := row[model.IDField]; ok {
		out[model.IDField] = toString(id)
	}
	for _, f := range def.Fields {
		v, ok := row[f.Name]
		if !ok || v == nil {
			continue
		}
		out[f.Name] = decode(f.Type, v)
	}
	return out
}

func decode(t model.FieldType, v any) any {
	switch t {
	case model.TypeNumber:
		switch n := v.(type) {
		case int64:
			return float64(n)
		case float64:
			return n
		}
	case model.TypeBoolean:
		switch b := v.(type) {
		case int64:
			return b != 0
		case bool:
			return b
		}
	case model.TypeObject, model.TypeArray:
		var out any
		if err := json.Unmarshal([]byte(toString(v)), &out); err == nil {
			return out
		}
	case model.TypeString, model.TypeDate:
		return toString(v)
	}
	return v
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return fmt.Sprint(v)
}
