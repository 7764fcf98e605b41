// Package domain contains the core domain entities and value objects for matload.
//
// This package represents the innermost layer of the application. It has no
// dependencies on infrastructure concerns (HTTP, file system, logging) and
// contains only pure business data and rules.
//
// # Entities
//
//   - [Record]: One input row describing a material master entity to create
//   - [ValidationResult]: The outcome of validating a single record
//   - [Outcome]: The outcome of one transport submission
//   - [RecordResult]: The per-record result collected into a batch
//   - [BatchResult]: The aggregate result of one batch run
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Testable without mocks or external systems
package domain
