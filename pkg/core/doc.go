// Package core defines the shared language of the leapmap system.
//
// This package contains:
//   - Mapping metadata entities (Repository, Folder, Mapping, Instance, Connector)
//   - Transformation definitions (Transformation, TransformField, TableAttribute)
//   - Analysis products (LineageRecord, EnrichedConnector)
//   - Typed domain errors (StructuralError)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
