// Package domain defines the core business entities for Frontdesk.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A unit of business knowledge with version history
//   - DocumentChunk: An embeddable unit of a document's content
//   - Business: A tenant whose knowledge is indexed
//   - Service: A structured offering used for scoped retrieval
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
