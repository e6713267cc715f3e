// Package domain holds the value types shared by every layer of the survey
// engine: questionnaire graph nodes and edges, the survey aggregate, the
// status machine table and the lifecycle event types.
//
// The package has no behavior beyond small accessors; algorithms live in
// pkg/engine and storage in pkg/adapters.
package domain
