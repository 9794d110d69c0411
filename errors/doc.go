// Package errors provides the structured error type shared by the
// orchestrator, the capability layer and the HTTP transport.
//
// Task-level failures (unknown capability, capability error, deadline
// exceeded) are modelled as AppError values so that they carry a stable
// machine code, but the orchestrator never returns them from Execute: they
// are stored inline in the per-task result map.
package errors
