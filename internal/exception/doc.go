// Package exception turns request failures into HTTP error responses.
//
// The package is built from four parts:
//   - Registry: the ordered mapping from failure kind to ErrorInfo
//   - Resolver: picks the ErrorInfo for an arbitrary error
//   - ResponseBuilder: logs the failure and assembles the response
//   - Registrar: binds every registry entry to a Fiber application
//
// # Usage
//
// Register the handlers before any route so every route's errors reach them:
//
//	app := fiber.New()
//	exception.Register(app, cfg.Server.Env, exception.WithLogger(logger))
//	app.Get("/items/:id", getItem)
//
// Errors raised by middleware installed ahead of the registrar reach the
// same bindings through Fiber's error handler:
//
//	reg := exception.NewRegistrar(stage)
//	app := fiber.New(fiber.Config{ErrorHandler: reg.ErrorHandler()})
//	app.Use(reg.Middleware())
//
// Inside custom middleware an error can be rendered directly:
//
//	if err := check(c); err != nil {
//	    return exception.GenerateErrorResponse(c, err, stage)
//	}
//
// # Stages
//
// Any stage other than "prod" or "production" exposes diagnostic detail in
// the response body. Production responses carry only the public message.
package exception
