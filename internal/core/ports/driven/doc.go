// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports).
//
// The core services depend on these interfaces, never on concrete
// adapters. Adapters live under internal/adapters/driven and are
// injected at wiring time in cmd/frontdesk.
package driven
