// Package handler is the HTTP layer of both surfaces.
//
// Handlers bind and validate requests through the validation package, call
// the service layer and choose how the result is written: JSON, a rendered
// page or a CSV download.
package handler
