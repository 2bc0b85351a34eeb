// Package services implements the core application logic for Frontdesk.
//
// Services orchestrate domain operations through driven ports and are
// exposed to adapters through driving ports:
//
//   - IndexingOrchestrator: extract -> chunk -> embed -> persist
//   - RetrievalService: service intent + hybrid vector/keyword retrieval
//
// Services depend only on domain and ports, never on adapters.
package services
