// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

/*
Package websocket streams execution status changes to API clients.

The Hub is the execution store's Notifier: every persisted change is
queued to the hub, which forwards it to the clients watching that
execution. Each Client watches exactly one execution.

Message Format:

	{"type": "execution", "data": {"id": "...", "status": "running", "step": "...", ...}}

Clients may send {"type": "ping"} and receive {"type": "pong"}.

When an execution reaches a terminal status the final message is delivered
and the connection is closed with a normal closure frame. Clients that fall
behind are disconnected; they can reconnect and receive a fresh snapshot.

Each client has two goroutines:
  - readPump: reads pings and detects disconnects
  - writePump: writes queued messages and keepalive pings
*/
package websocket
