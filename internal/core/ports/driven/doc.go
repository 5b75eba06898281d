// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentStore: Document persistence
//   - IndexStore: Indexed-record persistence and search
//   - ArtifactStore: Job result persistence
//   - Indexer / Validator: per-document-type plugin contracts
//
// # Optional Interfaces
//
//   - TraceStore: waveform trace index. Without it, dataselect queries
//     are unavailable.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
