// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - SchemaSource: Provides grammar text by schema ID
//   - ConstraintCache: Caches compiled constraint tables
//   - ReportCache: Caches validation reports by document revision
//   - SessionStore: Session, delta log, and event trail persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - SchemaWatcher: Signals grammar changes so caches can be cleared.
//     Without it, caches are cleared only on explicit refresh.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
