// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

/*
Package supervisor runs the long-lived services of the import engine under
a suture v4 supervisor tree.

	geoimport
	├── broker-layer
	│   └── embedded NATS server (dispatch mode nats, embedded_server)
	├── worker-layer
	│   ├── websocket hub (execution status fan-out)
	│   └── dispatch pool, or the Watermill JetStream consumer
	└── api-layer
	    └── HTTP server

Layers are added to the root in order, so suture starts the broker before
the workers and the workers before the HTTP server. Crashed services are
restarted with suture's backoff; failures are counted per layer.

Suture events are logged through sutureslog into the zerolog logger:

	tree, err := supervisor.NewSupervisorTree(nil, supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddWorkerService(hub)
	tree.AddWorkerService(pool)
	tree.AddAPIService(services.NewHTTPService(server, cfg.Server.ShutdownTimeout))
	err = tree.Serve(ctx)
	tree.LogUnstopped()
*/
package supervisor
