// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

/*
Package schema caches the metadata of one PALO server.

A Catalog holds the databases of an endpoint, and each Database lazily
discovers its cubes, dimensions and dimension elements the first time a
request needs them. Stages are run only when missing:

	db, err := catalog.EnsureDatabase(ctx, loader, "biker")
	err = db.EnsureCubes(ctx, loader)
	cube, ok := db.Cube("Orders")

Discovery and reset of one database are serialized by a mutex on that
database, so concurrent requests never repeat a stage. Element sets are
immutable; refreshing a dimension swaps in a new set atomically.

Cached objects carry the coherence tokens the server returned with them.
Reset drops a database's cubes and dimensions (or every database) so the
next access rediscovers them.
*/
package schema
