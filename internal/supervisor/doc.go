// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

/*
Package supervisor runs the gateway's long-lived services under a suture v4
tree.

	RootSupervisor ("cubegate")
	├── UpstreamSupervisor ("upstream-layer")
	│   ├── SessionSweeperService
	│   └── DrainService
	├── FormsSupervisor ("forms-layer")
	│   └── forms.Watcher (if forms.watch)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crash in the form watcher is restarted with backoff without touching
the HTTP server or pooled sessions.

# Shutdown

Canceling the context passed to Serve stops every layer concurrently. The
HTTP server drains in-flight requests while DrainService marks the
gateway as shut down, so new requests fail with "Server is shut down", and
logs out idle PALO sessions within the configured grace period. Sessions
still in use are logged out as their requests release them.

Services follow the suture contract: Serve returns promptly once its
context is done, and any other return is treated as a crash and restarted.

	tree, _ := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
	tree.AddUpstreamService(services.NewSessionSweeperService(reg, 30*time.Second))
	tree.AddUpstreamService(services.NewDrainService(svc, reg, 5*time.Second))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	err := tree.Serve(ctx)
*/
package supervisor
