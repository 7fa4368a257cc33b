// Package app wires the dashboard together and manages its lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration from defaults, YAML file and environment
//  2. Initialize the slog logger and OpenTelemetry providers
//  3. Create the session store, upload validator and services
//  4. Set up the chi router, middleware and handlers
//  5. Serve until the context is cancelled or a signal arrives
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// On SIGINT or SIGTERM in-flight requests are allowed to complete within
// the configured shutdown timeout, then telemetry is flushed. Errors are
// returned to the caller; the package never calls os.Exit.
package app
