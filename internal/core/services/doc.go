// Package services implements the driving port interfaces.
// Services contain the core business logic: parsing markup into
// documents, validating and applying mutations, replaying entity
// deltas, and resolving schemas. They orchestrate calls to driven
// ports (adapters) but never touch storage or transport directly.
package services
