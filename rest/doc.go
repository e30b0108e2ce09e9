// Package rest exposes registered models over HTTP.
//
// API mounts four routes per public model under the API root:
//
//	GET    {root}/{plural}
//	POST   {root}/{plural}
//	GET    {root}/{plural}/:id
//	DELETE {root}/{plural}/:id
//
// Request bodies are checked against the model definition and hidden fields
// are stripped from every response. Errors use the errors package envelope.
// Explorer serves a JSON description of models, datasources and routes.
package rest
