// Package api implements the HTTP REST API and WebSocket server for Inventory Core.
//
// This package provides:
//   - REST endpoints for device CRUD, search, and fleet statistics
//   - WebSocket hub for real-time device change broadcasts
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Architecture
//
// The API server sits between user interfaces (web dashboard, mobile
// apps) and the device registry. Writes flow through the registry, which
// persists to SQLite and fires change notifications; the server relays
// those notifications to WebSocket clients and onto the MQTT event
// topics so other services can follow along.
//
// # Graceful Degradation
//
// The server operates without MQTT — REST and WebSocket continue to
// work, only broker event publication is skipped.
package api
