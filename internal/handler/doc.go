// Package handler contains the HTTP handlers apikit mounts on every
// application: health probes and the error response catalogue.
//
// Handlers return errors instead of writing error bodies; the exception
// registrar renders them.
//
// # Thread Safety
//
// All handlers are safe for concurrent use.
package handler
