// Cubegate - OLAP Access Gateway for PALO Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cubegate

/*
Package pool limits and recycles the sessions held against one PALO server.

PALO servers license a fixed number of concurrent sessions, so the pool
admits at most MaxSessions active sessions per endpoint. Acquire hands out
an idle saved session when one is still within its idle deadline, logs in
a new one while below the ceiling, and otherwise queues the caller:

	sess, err := p.Acquire(ctx, creds)
	if err != nil {
		return err
	}
	defer p.Release(sess)

Queued callers are served strictly first in, first out whenever a session
is released or discarded. A caller whose context ends is removed from the
queue; no queued caller is dropped otherwise.

Release keeps up to SaveSessions sessions for reuse and logs out the rest.
Discard logs a session out unconditionally and is used after protocol
errors so a broken session is never reused.
*/
package pool
