package model

import "github.com/kbukum/iotmarket/errors"

// Options control how a definition is attached to the host.
type Options struct {
	// DataSource is the id of a datasource already registered on the host.
	DataSource string
	// Public models get REST routes under the API root.
	Public bool
}

// Registration is a definition bound to a datasource.
type Registration struct {
	Definition Definition `json:"definition"`
	DataSource string     `json:"dataSource"`
	Public     bool       `json:"public"`
}

// Name is the model name.
func (r Registration) Name() string { return r.Definition.Name }

// ErrUnknownDataSource is returned when a model names a datasource the host
// does not know.
func ErrUnknownDataSource(model, dataSource string) *errors.AppError {
	return errors.NotFound("datasource", dataSource).WithDetail("model", model)
}
